package config

import (
	"context"

	"github.com/Devhypertech/aigroupgepanda/internal/repository"
	"github.com/Devhypertech/aigroupgepanda/models"

	"go.uber.org/zap"
)

// DemoRoomID is the room created by SeedDemo.
const DemoRoomID = "demo-lisbon"

// SeedDemo creates a sample room with a trip context unless one already exists.
func SeedDemo(ctx context.Context, store *repository.Store, log *zap.SugaredLogger) error {
	if _, err := store.Rooms.GetOrCreate(ctx, DemoRoomID, models.TemplateTravelPlanning); err != nil {
		return err
	}

	existing, err := store.TripContexts.Get(ctx, DemoRoomID)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Infow("demo room already seeded", "room", DemoRoomID)
		return nil
	}

	destination := "Lisbon, Portugal"
	start, end := "2025-06-10", "2025-06-15"
	travelers := 4
	budget := "mid-range"
	interests := []string{"food", "history", "viewpoints"}

	if _, err := store.TripContexts.Upsert(ctx, DemoRoomID, models.TripContextData{
		Destination: &destination,
		StartDate:   &start,
		EndDate:     &end,
		Travelers:   &travelers,
		BudgetRange: &budget,
		Interests:   &interests,
	}); err != nil {
		return err
	}

	log.Infow("demo room seeded", "room", DemoRoomID)
	return nil
}
