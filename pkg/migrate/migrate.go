package migrate

import (
	"context"
	"fmt"

	"github.com/jconn5803/stripe-recurring-revenue/pkg/config"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/db"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/db/models"
	"github.com/jconn5803/stripe-recurring-revenue/pkg/logger"
)

// MaybeRunDev applies the schema automatically when the app runs in dev
// mode with the auto-migrate flag enabled. Production schema changes go
// through explicit migrations, not this path.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if logg != nil {
		ctx = logg.WithField(ctx, "env", cfg.App.Env)
		logg.Info(ctx, "running schema auto-migration (dev auto-run)")
	}

	if err := client.DB().WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Subscription{},
	); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "schema auto-migration completed")
	}
	return nil
}
