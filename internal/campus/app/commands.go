package app

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/campusbot/internal/campus/service"
)

// Migrate applies database migrations and exits.
func Migrate(cfg Config) error {
	db, err := OpenStore(cfg, NewLogger(cfg))
	if err != nil {
		return err
	}
	return db.Close()
}

// ResetNotified runs one notified-flag sweep immediately.
func ResetNotified(ctx context.Context, cfg Config) (service.SweepResult, error) {
	logger := NewLogger(cfg)

	db, err := OpenStore(cfg, logger)
	if err != nil {
		return service.SweepResult{}, err
	}
	defer db.Close()

	location, err := cfg.Location()
	if err != nil {
		return service.SweepResult{}, fmt.Errorf("TIMEZONE: %w", err)
	}

	reset := service.NewNotifiedReset(db, logger, cfg.ResetAt, location)
	res, err := reset.Sweep(ctx)
	if err != nil {
		return res, err
	}

	logger.Info("notified flags reset", "total", res.Total, "reset", res.Reset, "failed", res.Failed)
	return res, nil
}
