package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/seating/internal/mongo"
)

// ResetDB drops the seating database - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("⚠️  DANGER: This will drop the seating database!")
	logger.Infof("⚠️  This action cannot be undone!")

	store := mongo.NewStore(config, logger)
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer store.Stop(ctx)

	if err := store.Drop(ctx); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}

	logger.Info("Seating database has been dropped")
	return nil
}
