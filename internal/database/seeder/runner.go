package seeder

import (
	"context"
	"fmt"
	"log"

	"matchmaking/internal/database"
)

type Runner struct {
	Seeders []Seeder
	Logger  *log.Logger
}

func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		if err := s.Run(ctx, db); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		if r.Logger != nil {
			r.Logger.Printf("[Seeder] applied name=%s", s.Name())
		}
	}
	return nil
}

func Defaults() []Seeder {
	return []Seeder{DemoEventSeeder{}}
}
