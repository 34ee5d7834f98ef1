package repository

import (
	"context"

	"github.com/fastygo/taskhub/domain"
)

// SessionRepository stores live refresh-token sessions keyed by the token id.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	// DeleteByUser revokes every session of userID and returns how many were live.
	DeleteByUser(ctx context.Context, userID int64) (int, error)
}
