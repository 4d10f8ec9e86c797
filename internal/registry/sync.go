package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sync upserts every catalog descriptor into the function registry table.
// Rows for capabilities no longer in the catalog are left untouched so
// existing overrides keep their foreign keys.
func Sync(ctx context.Context, db *gorm.DB, catalog *Catalog) error {
	rows := make([]models.Function, 0, catalog.Len())
	for _, d := range catalog.All() {
		rows = append(rows, models.Function{
			Domain:        d.Domain,
			FunctionName:  d.Name,
			Description:   d.Description,
			RequiresAuth:  d.RequiresAuth,
			RateLimitTier: d.RateLimitTier,
		})
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "function_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"domain", "description", "requires_auth", "rate_limit_tier", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to sync function registry: %w", err)
	}

	slog.Info("function registry synced", "functions", len(rows))
	return nil
}
