package security

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

func TestProfileService_ResolveOrProvision(t *testing.T) {
	e := setupEnv(t)

	p, err := e.profile.ResolveOrProvision(ctx, domain.ResolveOrProvisionRequest{AuthID: "auth|new", DisplayName: "New"})
	require.NoError(t, err)
	assert.NotEqual(t, "auth|new", p.ID)

	again, err := e.profile.ResolveOrProvision(ctx, domain.ResolveOrProvisionRequest{AuthID: "auth|new"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	_, err = e.profile.ResolveOrProvision(ctx, domain.ResolveOrProvisionRequest{})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestProfileService_ConcurrentProvisionConverges(t *testing.T) {
	e := setupEnv(t)

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			p, err := e.profile.ResolveOrProvision(ctx, domain.ResolveOrProvisionRequest{AuthID: "auth|race"})
			errs[idx] = err
			if err == nil {
				ids[idx] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}
