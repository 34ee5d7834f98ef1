package domain

import (
	"fmt"
	"time"
)

// Account sources accepted on registration and social login.
const (
	SourceLocal    = "local"
	SourceGoogle   = "google"
	SourceFacebook = "facebook"
	SourceLinkedIn = "linkedin"
	SourceTwitter  = "twitter"
)

// Default media paths used when a profile has no picture.
const (
	DefaultProfilePicture = "/static/default_images/default_profile_picture.jpg"
	DefaultCoverPicture   = "/static/default_images/beach_1.jpg"
)

// IsKnownSource reports whether source is one of the supported account sources.
func IsKnownSource(source string) bool {
	switch source {
	case SourceLocal, SourceGoogle, SourceFacebook, SourceLinkedIn, SourceTwitter:
		return true
	}
	return false
}

// User represents an authenticated identity in the platform.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	Source       string
	IsActive     bool
	IsAdmin      bool
	IsStaff      bool
	OTP          *string
	DateJoined   time.Time
	LastLogin    time.Time
	Profile      *Profile
}

func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

// HasUsablePassword is false for accounts created through social login.
func (u *User) HasUsablePassword() bool {
	return u != nil && u.PasswordHash != ""
}

// Profile holds the optional personal details attached one-to-one to a user.
type Profile struct {
	ID             int64
	UserID         int64
	ProfilePicture string
	CoverPicture   string
	Country        *string
	City           *string
	Bio            *string
	Gender         *string
	DateOfBirth    *time.Time
	MaritalStatus  *string
	PhoneNumber    *string
	Work           *string
	Education      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastActive     time.Time
}

// ProfilePicturePath returns the stored picture path or the default placeholder.
func (p *Profile) ProfilePicturePath() string {
	if p == nil || p.ProfilePicture == "" {
		return DefaultProfilePicture
	}
	return p.ProfilePicture
}

// CoverPicturePath returns the stored cover path or the default placeholder.
func (p *Profile) CoverPicturePath() string {
	if p == nil || p.CoverPicture == "" {
		return DefaultCoverPicture
	}
	return p.CoverPicture
}

func (p *Profile) FullAddress() string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%s | %s", deref(p.Country), deref(p.City))
}

// Age counts calendar years only, like the year subtraction used for the adult check.
func (p *Profile) Age(now time.Time) *int {
	if p == nil || p.DateOfBirth == nil {
		return nil
	}
	age := now.Year() - p.DateOfBirth.Year()
	return &age
}

func (p *Profile) IsAdult(now time.Time) *bool {
	age := p.Age(now)
	if age == nil {
		return nil
	}
	adult := *age >= 18
	return &adult
}

// UserRef is the slice of user data embedded in comments and reactions.
type UserRef struct {
	ID             int64
	Username       string
	FirstName      string
	LastName       string
	ProfilePicture string
}

func (r UserRef) FullName() string {
	return fmt.Sprintf("%s %s", r.FirstName, r.LastName)
}

// ProfilePicturePath returns the stored picture path or the default placeholder.
func (r UserRef) ProfilePicturePath() string {
	if r.ProfilePicture == "" {
		return DefaultProfilePicture
	}
	return r.ProfilePicture
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
