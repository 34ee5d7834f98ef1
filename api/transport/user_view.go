package transport

import (
	"time"

	"github.com/fastygo/taskhub/domain"
)

const dateLayout = "2006-01-02"

type ProfileView struct {
	ID             int64   `json:"id"`
	FullName       string  `json:"full_name"`
	FullAddress    string  `json:"full_address"`
	Country        *string `json:"country"`
	City           *string `json:"city"`
	PhoneNumber    *string `json:"phone_number"`
	Gender         *string `json:"gender"`
	DateOfBirth    *string `json:"date_of_birth"`
	Age            *int    `json:"age"`
	IsAdult        *bool   `json:"is_adult"`
	MaritalStatus  *string `json:"marital_status"`
	Bio            *string `json:"bio"`
	ProfilePicture string  `json:"profile_picture"`
	CoverPicture   string  `json:"cover_picture"`
	Work           *string `json:"work"`
	Education      *string `json:"education"`
}

type UserView struct {
	ID         int64        `json:"id"`
	FirstName  string       `json:"first_name"`
	LastName   string       `json:"last_name"`
	Email      string       `json:"email"`
	Username   string       `json:"username"`
	Source     string       `json:"source"`
	IsActive   bool         `json:"is_active"`
	Profile    *ProfileView `json:"profile"`
	DateJoined time.Time    `json:"date_joined"`
}

// AuthView is returned by every flow that issues tokens.
type AuthView struct {
	Access   string   `json:"access"`
	Refresh  string   `json:"refresh"`
	UserData UserView `json:"user_data"`
}

func NewUserView(u *domain.User, urls URLResolver, now time.Time) UserView {
	view := UserView{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Username:   u.Username,
		Source:     u.Source,
		IsActive:   u.IsActive,
		DateJoined: u.DateJoined,
	}
	if p := u.Profile; p != nil {
		view.Profile = &ProfileView{
			ID:             p.ID,
			FullName:       u.FullName(),
			FullAddress:    p.FullAddress(),
			Country:        p.Country,
			City:           p.City,
			PhoneNumber:    p.PhoneNumber,
			Gender:         p.Gender,
			Age:            p.Age(now),
			IsAdult:        p.IsAdult(now),
			MaritalStatus:  p.MaritalStatus,
			Bio:            p.Bio,
			ProfilePicture: urls.Absolute(p.ProfilePicturePath()),
			CoverPicture:   urls.Absolute(p.CoverPicturePath()),
			Work:           p.Work,
			Education:      p.Education,
		}
		if p.DateOfBirth != nil {
			dob := p.DateOfBirth.Format(dateLayout)
			view.Profile.DateOfBirth = &dob
		}
	}
	return view
}

func NewAuthView(u *domain.User, tokens domain.TokenPair, urls URLResolver, now time.Time) AuthView {
	return AuthView{
		Access:   tokens.Access,
		Refresh:  tokens.Refresh,
		UserData: NewUserView(u, urls, now),
	}
}
