package security

import (
	"context"
	"errors"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// ProfileService maps identity provider subjects to internal profiles.
type ProfileService struct {
	repo domain.ProfileRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(repo domain.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetByAuthID returns the profile linked to authID.
func (s *ProfileService) GetByAuthID(ctx context.Context, authID string) (*domain.Profile, error) {
	return s.repo.GetByAuthID(ctx, authID)
}

// ResolveOrProvision returns the profile for req.AuthID, creating it on
// first sight. Concurrent first requests converge on one profile.
func (s *ProfileService) ResolveOrProvision(ctx context.Context, req domain.ResolveOrProvisionRequest) (*domain.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByAuthID(ctx, req.AuthID)
	if err == nil {
		return p, nil
	}
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}

	p, err = s.repo.Create(ctx, &domain.Profile{AuthID: req.AuthID, DisplayName: req.DisplayName})
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return s.repo.GetByAuthID(ctx, req.AuthID)
		}
		return nil, err
	}
	return p, nil
}
