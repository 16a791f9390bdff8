package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0003_normalize_difficulty.sql
var normalizeDifficultySQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, normalizeDifficultySQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			// Rewritten values cannot be told apart from native ones.
			return nil
		},
	)
}
