// Package auth implements registration, login, OTP activation, password
// recovery and refresh-token sessions.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/pkg/logger"
	"github.com/fastygo/taskhub/pkg/password"
	"github.com/fastygo/taskhub/pkg/token"
	"github.com/fastygo/taskhub/repository"
	"github.com/fastygo/taskhub/usecase"
)

// Result is returned by every flow that authenticates a user.
type Result struct {
	User    *domain.User
	Tokens  domain.TokenPair
	Created bool
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type SocialInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Source    string
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *token.Manager
	hasher   *password.Hasher
	notifier usecase.Notifier
	logger   *zap.Logger
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *token.Manager,
	hasher *password.Hasher,
	notifier usecase.Notifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger,
	}
}

// Register creates an inactive local account and mails its activation code.
func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	if _, err := uc.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	username, err := uc.uniqueUsername(ctx, in.Email)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Username:     username,
		PasswordHash: hash,
		Source:       domain.SourceLocal,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, emailTaken()
		}
		return nil, err
	}

	tokens, err := uc.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := uc.storeOTP(ctx, user, uc.notifier.SendOTP); err != nil {
		return nil, err
	}
	return &Result{User: user, Tokens: tokens, Created: true}, nil
}

// Login accepts an e-mail or a username. Inactive users still receive
// tokens; callers decide how to answer.
func (uc *UseCase) Login(ctx context.Context, identifier, plain string) (*Result, error) {
	if identifier == "" || plain == "" {
		return nil, domain.ErrCredentialsRequired
	}

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = uc.users.GetByEmail(ctx, identifier)
	} else {
		user, err = uc.users.GetByUsername(ctx, identifier)
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !uc.hasher.Compare(user.PasswordHash, plain) {
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := uc.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := uc.users.TouchLogin(ctx, user.ID); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return &Result{User: user, Tokens: tokens}, nil
}

// Activate checks the mailed code and enables the account.
func (uc *UseCase) Activate(ctx context.Context, email, otp string) error {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.OTP == nil || *user.OTP != otp {
		return domain.ErrInvalidOTP
	}
	if err := uc.users.Activate(ctx, user.ID); err != nil {
		return err
	}
	if err := uc.notifier.Send(ctx, email, "account activated successfully", "account activated successfully"); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("activation mail not sent", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func (uc *UseCase) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !uc.hasher.Compare(user.PasswordHash, current) {
		return domain.ErrWrongPassword
	}
	return uc.setPassword(ctx, user.ID, next)
}

// ForgotPassword stores and mails a reset code.
func (uc *UseCase) ForgotPassword(ctx context.Context, email string) error {
	user, err := uc.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrEmailNotRegistered
	}
	if err != nil {
		return err
	}
	return uc.storeOTP(ctx, user, uc.notifier.SendResetCode)
}

// ResetPassword replaces the password of the account owning the reset code.
func (uc *UseCase) ResetPassword(ctx context.Context, email, otp, next string) error {
	user, err := uc.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrResetUserNotFound
	}
	if err != nil {
		return err
	}
	if user.OTP == nil || *user.OTP != otp {
		v := domain.NewValidationError()
		v.Add("otp", domain.ErrInvalidOTP.Message)
		return v
	}
	if uc.hasher.Compare(user.PasswordHash, next) {
		return domain.ErrPasswordReused
	}
	return uc.setPassword(ctx, user.ID, next)
}

// ResendCode issues a new activation code.
func (uc *UseCase) ResendCode(ctx context.Context, email string) error {
	user, err := uc.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrEmailNotRegistered
	}
	if err != nil {
		return err
	}
	return uc.storeOTP(ctx, user, uc.notifier.SendOTP)
}

// SocialLogin trusts the provider payload: the account is looked up by
// e-mail and created without a usable password when missing.
func (uc *UseCase) SocialLogin(ctx context.Context, in SocialInput) (*Result, error) {
	user, err := uc.users.GetByEmail(ctx, in.Email)
	created := false
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = uc.createSocialUser(ctx, in)
		if err != nil {
			return nil, err
		}
		created = true
	case err != nil:
		return nil, err
	}

	tokens, err := uc.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if created {
		if err := uc.storeOTP(ctx, user, uc.notifier.SendOTP); err != nil {
			return nil, err
		}
	}
	return &Result{User: user, Tokens: tokens, Created: created}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (uc *UseCase) Refresh(ctx context.Context, raw string) (string, error) {
	claims, err := uc.tokens.Parse(raw, token.Refresh)
	if err != nil {
		return "", domain.ErrTokenInvalid
	}
	session, err := uc.sessions.Get(ctx, claims.ID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return "", domain.ErrTokenInvalid
	}
	if err != nil {
		return "", err
	}
	if session.UserID != claims.UserID || session.IsExpired(time.Now()) {
		return "", domain.ErrTokenInvalid
	}

	access, _, err := uc.tokens.Issue(claims.UserID, token.Access)
	return access, err
}

// Logout revokes the refresh token of userID.
func (uc *UseCase) Logout(ctx context.Context, userID int64, raw string) error {
	claims, err := uc.tokens.Parse(raw, token.Refresh)
	if err != nil || claims.UserID != userID {
		return domain.NewError(domain.ErrCodeInvalid, domain.ErrTokenInvalid.Message)
	}
	if err := uc.sessions.Delete(ctx, claims.ID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrTokenBlacklisted
		}
		return err
	}
	return nil
}

func (uc *UseCase) createSocialUser(ctx context.Context, in SocialInput) (*domain.User, error) {
	username := in.Username
	if username == "" {
		var err error
		if username, err = uc.uniqueUsername(ctx, in.Email); err != nil {
			return nil, err
		}
	}
	source := in.Source
	if source == "" {
		source = domain.SourceLocal
	}

	user := &domain.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Username:  username,
		Source:    source,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			v := domain.NewValidationError()
			v.Add("username", "user with this username already exists.")
			return nil, v
		}
		return nil, err
	}
	return user, nil
}

// uniqueUsername derives a username from the e-mail local part and appends
// "@" plus six random hex characters until no other user holds it.
func (uc *UseCase) uniqueUsername(ctx context.Context, email string) (string, error) {
	username, _, _ := strings.Cut(email, "@")
	for {
		exists, err := uc.users.UsernameExists(ctx, username, 0)
		if err != nil {
			return "", err
		}
		if !exists {
			return username, nil
		}
		username += "@" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	}
}

// issue signs a token pair and records the refresh session.
func (uc *UseCase) issue(ctx context.Context, user *domain.User) (domain.TokenPair, error) {
	access, _, err := uc.tokens.Issue(user.ID, token.Access)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, claims, err := uc.tokens.Issue(user.ID, token.Refresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	session := &domain.Session{
		ID:        claims.ID,
		UserID:    user.ID,
		CreatedAt: claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

func (uc *UseCase) storeOTP(ctx context.Context, user *domain.User, send func(context.Context, string) (string, error)) error {
	code, err := send(ctx, user.Email)
	if err != nil {
		return err
	}
	if err := uc.users.SetOTP(ctx, user.ID, &code); err != nil {
		return err
	}
	user.OTP = &code
	return nil
}

// setPassword stores the new hash and revokes every refresh session of the user.
// A revocation failure is logged; the password change itself stands.
func (uc *UseCase) setPassword(ctx context.Context, userID int64, plain string) error {
	hash, err := uc.hasher.Hash(plain)
	if err != nil {
		return err
	}
	if err := uc.users.SetPassword(ctx, userID, hash); err != nil {
		return err
	}

	log := logger.WithRequestID(ctx, uc.logger).With(zap.Int64("user_id", userID))
	revoked, err := uc.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		log.Warn("failed to revoke sessions after password change", zap.Error(err))
		return nil
	}
	log.Info("password changed", zap.Int("revoked_sessions", revoked))
	return nil
}

func emailTaken() error {
	v := domain.NewValidationError()
	v.Add("email", domain.ErrEmailTaken.Message)
	return v
}
