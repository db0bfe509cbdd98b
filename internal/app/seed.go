package app

import (
	"context"
	"fmt"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/declarative"
)

// ApplyFixtures loads the fixture directory dir and writes it to the store.
// Already-present resources are skipped.
func (a *App) ApplyFixtures(ctx context.Context, dir string) (*declarative.Result, error) {
	state, err := declarative.LoadDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	return a.Fixtures.Apply(ctx, state)
}

// Seed applies the configured seed directory, if any.
func (a *App) Seed(ctx context.Context) error {
	if a.cfg == nil || a.cfg.SeedDir == "" {
		return nil
	}
	res, err := a.ApplyFixtures(ctx, a.cfg.SeedDir)
	if err != nil {
		return fmt.Errorf("seed %s: %w", a.cfg.SeedDir, err)
	}
	s := res.Summary()
	a.logger.InfoContext(ctx, "seed applied", "dir", a.cfg.SeedDir, "created", s.Creates, "updated", s.Updates)
	return nil
}
