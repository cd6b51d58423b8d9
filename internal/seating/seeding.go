package seating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
)

const seedApplication = "seating"

type bootstrapSeedDocument struct {
	Tables []tableSeed `json:"tables"`
}

type tableSeed struct {
	Number   string `json:"number"`
	Capacity int    `json:"capacity"`
}

func loadTableSeeds(seedFS fs.ReadFileFS) ([]tableSeed, error) {
	seedBytes, err := seedFS.ReadFile("seed.json")
	if err != nil {
		return nil, fmt.Errorf("read seed.json: %w", err)
	}

	if len(seedBytes) == 0 {
		return nil, errors.New("table seed file is empty")
	}

	var doc bootstrapSeedDocument
	if err := json.Unmarshal(seedBytes, &doc); err != nil {
		return nil, fmt.Errorf("decode table seed file: %w", err)
	}

	if len(doc.Tables) == 0 {
		return nil, errors.New("table seed file does not contain tables")
	}

	return doc.Tables, nil
}

// ApplyTableSeeds ensures all predefined tables exist. Each table is a
// separate seed so adding one to seed.json later only creates that table.
func ApplyTableSeeds(ctx context.Context, registry *Registry, tracker seed.Tracker, seedFS fs.ReadFileFS, logger apt.Logger) error {
	if registry == nil {
		return errors.New("table registry is required")
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	raw, err := loadTableSeeds(seedFS)
	if err != nil {
		return err
	}

	var defs []seed.Seed
	for _, s := range raw {
		seedData := s
		if strings.TrimSpace(seedData.Number) == "" {
			logger.Info("Skipping seed table with empty number")
			continue
		}

		defs = append(defs, seed.Seed{
			ID:          fmt.Sprintf("2025-01-15_table_%s", seedIdentifier(seedData.Number)),
			Description: fmt.Sprintf("Ensure table %s exists", seedData.Number),
			Run: func(ctx context.Context) error {
				return seedData.ensureTable(ctx, registry, logger)
			},
		})
	}
	if len(defs) == 0 {
		logger.Info("No table seeds to apply")
		return nil
	}

	logger.Info("Applying table seeds")
	if err := seed.Apply(ctx, tracker, defs, seedApplication); err != nil {
		return err
	}
	logger.Info("Table seeds applied successfully")
	return nil
}

func (s tableSeed) ensureTable(ctx context.Context, registry *Registry, logger apt.Logger) error {
	_, err := registry.Create(ctx, TableCreateRequest{Number: s.Number, Capacity: s.Capacity})
	if IsKind(err, KindDuplicateEntry) {
		logger.Info("Seed table already exists", "number", s.Number)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create seed table %s: %w", s.Number, err)
	}

	logger.Info("Seed table created", "number", s.Number, "capacity", s.Capacity)
	return nil
}

func seedIdentifier(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}

	replacer := strings.NewReplacer("-", "_", " ", "_", "/", "_", "\\", "_")
	value = replacer.Replace(value)

	var builder strings.Builder
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			builder.WriteRune(r)
		}
	}

	result := builder.String()
	if result == "" {
		return "seed"
	}
	return result
}

// SeedingFunc returns a lifecycle OnStart-compatible function which applies
// table seeds in the background.
func SeedingFunc(seedCtx context.Context, registry *Registry, tracker seed.Tracker, seedFS fs.ReadFileFS, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting table seeding in background")
		go func() {
			if err := ApplyTableSeeds(seedCtx, registry, tracker, seedFS, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Table seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Table seeding completed successfully")
			}
		}()
		return nil
	}
}

// StopFunc returns a lifecycle OnStop-compatible function which cancels any
// background seeding goroutine.
func StopFunc(cancelFunc context.CancelFunc) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if cancelFunc != nil {
			cancelFunc()
		}
		return nil
	}
}
