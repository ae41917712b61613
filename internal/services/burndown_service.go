package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/store"
	"github.com/localnerve/scrumdb/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/hints"
)

// UpsertBurndown writes a freshly generated series for one (project, viewer)
// pair, overwriting any prior rows for overlapping dates. No partial merge:
// the engine always regenerates the whole series.
func UpsertBurndown(ctx context.Context, db *gorm.DB, projectID, viewerID string, points []models.BurndownPoint) error {
	if len(points) == 0 {
		return nil
	}

	for i := range points {
		if points[i].ID == "" {
			points[i].ID = uuid.NewString()
		}
		points[i].ProjectID = projectID
		points[i].UserID = viewerID
	}

	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "project_id"}, {Name: "user_id"}, {Name: "date"},
				},
				DoUpdates: clause.AssignmentColumns([]string{
					"ideal_points", "actual_points", "updated_at",
				}),
			}).
			Create(&points).Error
	})
	if err != nil {
		return types.Opf("burndown", "upsert", classify(err))
	}
	return nil
}

// FetchBurndown returns the persisted series for one (project, viewer) pair
// in date order.
func FetchBurndown(ctx context.Context, db *gorm.DB, projectID, viewerID string) ([]models.BurndownPoint, error) {
	points, err := store.WithRetry(ctx, func() ([]models.BurndownPoint, error) {
		var out []models.BurndownPoint
		q := db.WithContext(ctx)
		// Index hint syntax is MySQL/MariaDB only.
		if db.Dialector.Name() == "mysql" {
			q = q.Clauses(hints.UseIndex("idx_burndown_project_user_date"))
		}
		err := q.
			Where("project_id = ? AND user_id = ?", projectID, viewerID).
			Order("date").
			Find(&out).Error
		return out, err
	})
	if err != nil {
		return nil, types.Opf("burndown", "fetch", classify(err))
	}
	return points, nil
}

// DeleteBurndown drops every persisted point for a project, all viewers.
func DeleteBurndown(ctx context.Context, db *gorm.DB, projectID string) error {
	_, err := store.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, db.WithContext(ctx).
			Where("project_id = ?", projectID).
			Delete(&models.BurndownPoint{}).Error
	})
	if err != nil {
		return types.Opf("burndown", "delete", classify(err))
	}
	return nil
}
