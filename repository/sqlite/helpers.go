// Package sqlite implements the repository ports on an embedded SQLite
// database through sqlx. It backs DB_DRIVER=sqlite and the storage tests.
package sqlite

import (
	"database/sql"
	"strings"
	"time"
)

type clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// uniqueViolation reports whether err is a UNIQUE failure on the given "table.column" target.
func uniqueViolation(err error, target string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, target)
}

func foreignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt(i sql.NullInt64) *int64 {
	if !i.Valid {
		return nil
	}
	v := i.Int64
	return &v
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
