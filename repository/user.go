package repository

import (
	"context"
	"time"

	"github.com/fastygo/taskhub/domain"
)

// ProfilePatch carries a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	FirstName      *string
	LastName       *string
	Username       *string
	ProfilePicture *string
	CoverPicture   *string
	Country        *string
	City           *string
	Bio            *string
	Gender         *string
	DateOfBirth    *time.Time
	MaritalStatus  *string
	PhoneNumber    *string
	Work           *string
	Education      *string
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameExists(ctx context.Context, username string, exceptID int64) (bool, error)
	// Create inserts the user together with its empty profile.
	Create(ctx context.Context, user *domain.User) error
	SetOTP(ctx context.Context, id int64, otp *string) error
	SetPassword(ctx context.Context, id int64, hash string) error
	Activate(ctx context.Context, id int64) error
	TouchLogin(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) error
}
