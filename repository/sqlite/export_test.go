package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const (
	ToggleStepInsert   = stepInsert
	ToggleStepConflict = stepConflict
)

// SetToggleHook installs fn to run inside each toggle transaction step.
func SetToggleHook(r *ReactionRepository, fn func(ctx context.Context, tx *sqlx.Tx, step string) error) {
	r.stepHook = fn
}
