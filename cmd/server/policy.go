package main

import (
	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/internal/config"
	"github.com/sanrakshak/herbtrace/usecase/intake"
)

// intakePolicy starts from the Lucknow defaults and applies the policy file,
// if one is configured.
func intakePolicy(path string, log *zap.Logger) (intake.Policy, error) {
	policy := intake.DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	file, err := config.LoadIntakePolicy(path)
	if err != nil {
		return policy, err
	}
	if len(file.Species) > 0 {
		policy.Species = file.Species
	}
	if !file.Fence.IsZero() {
		policy.Fence = intake.GeoFence{
			MinLat: file.Fence.MinLat,
			MaxLat: file.Fence.MaxLat,
			MinLon: file.Fence.MinLon,
			MaxLon: file.Fence.MaxLon,
		}
	}
	if file.AllowTestCoordinate != nil {
		policy.AllowTestCoordinate = *file.AllowTestCoordinate
	}

	log.Info("intake policy loaded",
		zap.String("path", path),
		zap.Strings("species", policy.Species),
		zap.Bool("allow_test_coordinate", policy.AllowTestCoordinate))
	return policy, nil
}
