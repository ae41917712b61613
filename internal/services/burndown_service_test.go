package services

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/types"
)

func TestUpsertBurndownReplacesByDate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := registerTestUser(t, db, "alice")
	project := createTestProject(t, db, owner.ID, "Apollo")

	day := types.DateOnly(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	series := func(actual int) []models.BurndownPoint {
		return []models.BurndownPoint{
			{Date: day, IdealPoints: 10, ActualPoints: actual},
			{Date: day.AddDate(0, 0, 1), IdealPoints: 9, ActualPoints: actual},
		}
	}

	if err := UpsertBurndown(ctx, db, project.ID, owner.ID, series(10)); err != nil {
		t.Fatalf("Failed to upsert series: %v", err)
	}
	if err := UpsertBurndown(ctx, db, project.ID, owner.ID, series(5)); err != nil {
		t.Fatalf("Failed to re-upsert series: %v", err)
	}

	points, err := FetchBurndown(ctx, db, project.ID, owner.ID)
	if err != nil {
		t.Fatalf("Failed to fetch series: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 rows after re-upsert, got %d", len(points))
	}
	for _, p := range points {
		if p.ActualPoints != 5 {
			t.Errorf("Expected actual 5 on %v, got %d", p.Date, p.ActualPoints)
		}
	}
}

func TestBurndownSeriesPartitionedByViewer(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := registerTestUser(t, db, "alice")
	collab := registerTestUser(t, db, "bob")
	project := createTestProject(t, db, owner.ID, "Apollo")

	day := types.DateOnly(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	err := UpsertBurndown(ctx, db, project.ID, owner.ID, []models.BurndownPoint{
		{Date: day, IdealPoints: 10, ActualPoints: 10},
	})
	if err != nil {
		t.Fatalf("Failed to upsert owner series: %v", err)
	}
	err = UpsertBurndown(ctx, db, project.ID, collab.ID, []models.BurndownPoint{
		{Date: day, IdealPoints: 10, ActualPoints: 7},
	})
	if err != nil {
		t.Fatalf("Failed to upsert collaborator series: %v", err)
	}

	ownerSeries, err := FetchBurndown(ctx, db, project.ID, owner.ID)
	if err != nil {
		t.Fatalf("Failed to fetch owner series: %v", err)
	}
	if len(ownerSeries) != 1 || ownerSeries[0].ActualPoints != 10 {
		t.Errorf("Owner series polluted: %+v", ownerSeries)
	}

	collabSeries, err := FetchBurndown(ctx, db, project.ID, collab.ID)
	if err != nil {
		t.Fatalf("Failed to fetch collaborator series: %v", err)
	}
	if len(collabSeries) != 1 || collabSeries[0].ActualPoints != 7 {
		t.Errorf("Collaborator series polluted: %+v", collabSeries)
	}
}
