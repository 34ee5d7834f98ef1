package domain

import "time"

// Session tracks an issued refresh token so it can be revoked on logout.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// TokenPair is the access/refresh couple handed to clients after authentication.
type TokenPair struct {
	Access  string
	Refresh string
}
