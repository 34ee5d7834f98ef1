package transport

import (
	"time"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/repository"
)

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,notblank,max=50"`
	LastName  string `json:"last_name" validate:"required,notblank,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

func (r *RegisterRequest) Validate() error {
	v := domain.NewValidationError()
	checkFields(v, r)
	if v.Empty() && r.Password != r.Password2 {
		v.Add("password", "Passwords must match.")
	}
	return v.Err()
}

type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username"`
	Password        string `json:"password"`
}

type ActivateRequest struct {
	Email string `json:"email" validate:"required,notblank"`
	OTP   string `json:"otp" validate:"required,notblank"`
}

func (r *ActivateRequest) Validate() error {
	v := domain.NewValidationError()
	checkFields(v, r)
	return v.Err()
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (r *ChangePasswordRequest) Validate() error {
	v := domain.NewValidationError()
	checkFields(v, r)
	if v.Empty() && r.NewPassword != r.ConfirmPassword {
		v.Add(domain.NonFieldErrors, "New password and confirm password do not match.")
	}
	return v.Err()
}

// EmailRequest carries the single address used by forgot-password and resend-code.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *EmailRequest) Validate() error {
	v := domain.NewValidationError()
	checkFields(v, r)
	return v.Err()
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,notblank"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func (r *ResetPasswordRequest) Validate() error {
	v := domain.NewValidationError()
	checkFields(v, r)
	return v.Err()
}

type SocialLoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"max=50"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Source    string `json:"source" validate:"omitempty,source"`
}

func (r *SocialLoginRequest) Validate() error {
	v := domain.NewValidationError()
	checkFields(v, r)
	return v.Err()
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required,notblank"`
}

func (r *RefreshRequest) Validate() error {
	v := domain.NewValidationError()
	checkFields(v, r)
	return v.Err()
}

// TaskRequest is shared by create and partial update; absent fields stay nil.
type TaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
}

// Patch validates the request and converts it. partial allows a missing title.
func (r *TaskRequest) Patch(partial bool) (domain.TaskPatch, error) {
	v := domain.NewValidationError()
	if r.Title == nil && !partial {
		v.Add("title", msgRequired)
	}
	checkFields(v, r)
	if err := v.Err(); err != nil {
		return domain.TaskPatch{}, err
	}

	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		patch.Status = &status
	}
	if r.Priority != nil {
		priority := domain.TaskPriority(*r.Priority)
		patch.Priority = &priority
	}
	return patch, nil
}

type CommentRequest struct {
	Content *string `json:"content" validate:"omitempty,notblank"`
	Parent  *int64  `json:"parent"`
}

// Validate checks the body; partial permits a missing content on update.
func (r *CommentRequest) Validate(partial bool) error {
	v := domain.NewValidationError()
	if r.Content == nil && !partial {
		v.Add("content", msgRequired)
	}
	checkFields(v, r)
	return v.Err()
}

// ReactionRequest leaves ReactionType nil when the key is absent.
type ReactionRequest struct {
	ReactionType *string `json:"reaction_type"`
}

// Type returns the requested reaction, like when none was sent. An explicit
// empty value is passed through and rejected downstream.
func (r *ReactionRequest) Type() string {
	if r.ReactionType == nil {
		return string(domain.ReactionLike)
	}
	return *r.ReactionType
}

type ProfileUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Username  *string `json:"username" validate:"omitempty,notblank,max=50"`
}

type ProfileUpdateRequest struct {
	Country       *string             `json:"country" validate:"omitempty,max=50"`
	City          *string             `json:"city" validate:"omitempty,max=50"`
	PhoneNumber   *string             `json:"phone_number" validate:"omitempty,max=50"`
	Bio           *string             `json:"bio" validate:"omitempty,max=500"`
	Gender        *string             `json:"gender" validate:"omitempty,max=10"`
	DateOfBirth   *string             `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	MaritalStatus *string             `json:"marital_status" validate:"omitempty,max=20"`
	Work          *string             `json:"work" validate:"omitempty,max=50"`
	Education     *string             `json:"education" validate:"omitempty,max=50"`
	User          *ProfileUserRequest `json:"user"`
}

// Patch validates field lengths and the birth date and converts the request.
// An empty date_of_birth leaves the stored date untouched.
func (r *ProfileUpdateRequest) Patch() (repository.ProfilePatch, error) {
	if r.DateOfBirth != nil && *r.DateOfBirth == "" {
		r.DateOfBirth = nil
	}

	v := domain.NewValidationError()
	checkFields(v, r)
	if err := v.Err(); err != nil {
		return repository.ProfilePatch{}, err
	}

	patch := repository.ProfilePatch{
		Country:       r.Country,
		City:          r.City,
		PhoneNumber:   r.PhoneNumber,
		Bio:           r.Bio,
		Gender:        r.Gender,
		MaritalStatus: r.MaritalStatus,
		Work:          r.Work,
		Education:     r.Education,
	}
	if r.DateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *r.DateOfBirth)
		if err != nil {
			return repository.ProfilePatch{}, err
		}
		patch.DateOfBirth = &dob
	}
	if u := r.User; u != nil {
		patch.FirstName = u.FirstName
		patch.LastName = u.LastName
		patch.Username = u.Username
	}
	return patch, nil
}
