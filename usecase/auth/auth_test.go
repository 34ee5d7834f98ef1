package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskhub/domain"
	sqliteinfra "github.com/fastygo/taskhub/internal/infrastructure/sqlite"
	"github.com/fastygo/taskhub/pkg/password"
	"github.com/fastygo/taskhub/pkg/token"
	"github.com/fastygo/taskhub/repository/sqlite"
	"github.com/fastygo/taskhub/usecase/auth"
)

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) SendOTP(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *notifierMock) SendResetCode(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *notifierMock) Send(ctx context.Context, email, subject, body string) error {
	return m.Called(ctx, email, subject, body).Error(0)
}

type memorySessions struct {
	mu   sync.Mutex
	byID map[string]domain.Session
}

func (s *memorySessions) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *memorySessions) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[session.ID] = *session
	return nil
}

func (s *memorySessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *memorySessions) DeleteByUser(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.byID {
		if session.UserID == userID {
			delete(s.byID, id)
			removed++
		}
	}
	return removed, nil
}

type suite struct {
	uc       *auth.UseCase
	users    *sqlite.UserRepository
	sessions *memorySessions
	notifier *notifierMock
	tokens   *token.Manager
}

func newSuite(t *testing.T) *suite {
	t.Helper()
	ctx := context.Background()
	db, err := sqliteinfra.Open(ctx, sqliteinfra.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := &suite{
		users:    sqlite.NewUserRepository(db),
		sessions: &memorySessions{byID: map[string]domain.Session{}},
		notifier: &notifierMock{},
		tokens:   token.NewManager("test-secret", "taskhub", time.Minute, time.Hour),
	}
	s.uc = auth.New(s.users, s.sessions, s.tokens, password.NewHasher(bcrypt.MinCost), s.notifier, nil)
	return s
}

func (s *suite) register(t *testing.T, email string) *auth.Result {
	t.Helper()
	s.notifier.On("SendOTP", mock.Anything, email).Return("1234", nil).Once()
	res, err := s.uc.Register(context.Background(), auth.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Email: email, Password: "s3cret-pass",
	})
	require.NoError(t, err)
	return res
}

func TestRegister_CreatesInactiveUserWithOTP(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()

	res := s.register(t, "ada@example.com")
	assert.True(t, res.Created)
	assert.Equal(t, "ada", res.User.Username)
	assert.False(t, res.User.IsActive)
	assert.NotEmpty(t, res.Tokens.Access)
	assert.Len(t, s.sessions.byID, 1)

	stored, err := s.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.OTP)
	assert.Equal(t, "1234", *stored.OTP)
	require.NotNil(t, stored.Profile)
	s.notifier.AssertExpectations(t)
}

func TestRegister_UsernameCollisionGetsSuffix(t *testing.T) {
	s := newSuite(t)
	s.register(t, "ada@example.com")

	res := s.register(t, "ada@other.org")
	assert.Regexp(t, `^ada@[0-9a-f]{6}$`, res.User.Username)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newSuite(t)
	s.register(t, "ada@example.com")

	_, err := s.uc.Register(context.Background(), auth.RegisterInput{Email: "ada@example.com", Password: "x"})
	vErr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.True(t, vErr.Has("email"))
}

func TestLogin(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	s.register(t, "ada@example.com")

	_, err := s.uc.Login(ctx, "", "x")
	assert.ErrorIs(t, err, domain.ErrCredentialsRequired)

	_, err = s.uc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = s.uc.Login(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	byEmail, err := s.uc.Login(ctx, "ada@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.False(t, byEmail.User.IsActive)

	byName, err := s.uc.Login(ctx, "ada", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, byEmail.User.ID, byName.User.ID)
}

func TestActivate(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	s.register(t, "ada@example.com")

	assert.ErrorIs(t, s.uc.Activate(ctx, "nobody@example.com", "1234"), domain.ErrUserNotFound)
	assert.ErrorIs(t, s.uc.Activate(ctx, "ada@example.com", "9999"), domain.ErrInvalidOTP)

	s.notifier.On("Send", mock.Anything, "ada@example.com", "account activated successfully", mock.Anything).Return(nil).Once()
	require.NoError(t, s.uc.Activate(ctx, "ada@example.com", "1234"))

	user, err := s.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.OTP)
	s.notifier.AssertExpectations(t)
}

func TestActivate_MailFailureIsLogged(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	s.uc = auth.New(s.users, s.sessions, s.tokens, password.NewHasher(bcrypt.MinCost), s.notifier, zap.New(core))
	s.register(t, "ada@example.com")

	s.notifier.On("Send", mock.Anything, "ada@example.com", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	require.NoError(t, s.uc.Activate(ctx, "ada@example.com", "1234"))

	entries := logs.FilterMessage("activation mail not sent").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "smtp down", entries[0].ContextMap()["error"])
	s.notifier.AssertExpectations(t)
}

func TestChangePassword(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	res := s.register(t, "ada@example.com")

	assert.ErrorIs(t, s.uc.ChangePassword(ctx, res.User.ID, "nope", "next-pass"), domain.ErrWrongPassword)
	require.NoError(t, s.uc.ChangePassword(ctx, res.User.ID, "s3cret-pass", "next-pass"))

	_, err := s.uc.Refresh(ctx, res.Tokens.Refresh)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid, "old sessions are revoked")

	_, err = s.uc.Login(ctx, "ada", "next-pass")
	assert.NoError(t, err)
	assert.Len(t, s.sessions.byID, 1)
}

func TestForgotAndResetPassword(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	s.register(t, "ada@example.com")

	assert.ErrorIs(t, s.uc.ForgotPassword(ctx, "nobody@example.com"), domain.ErrEmailNotRegistered)

	s.notifier.On("SendResetCode", mock.Anything, "ada@example.com").Return("5678", nil).Once()
	require.NoError(t, s.uc.ForgotPassword(ctx, "ada@example.com"))

	assert.ErrorIs(t, s.uc.ResetPassword(ctx, "nobody@example.com", "5678", "brand-new-pass"), domain.ErrResetUserNotFound)

	err := s.uc.ResetPassword(ctx, "ada@example.com", "0000", "brand-new-pass")
	vErr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "otp: Invalid OTP", vErr.Error())

	assert.ErrorIs(t, s.uc.ResetPassword(ctx, "ada@example.com", "5678", "s3cret-pass"), domain.ErrPasswordReused)
	require.NoError(t, s.uc.ResetPassword(ctx, "ada@example.com", "5678", "brand-new-pass"))

	user, err := s.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Nil(t, user.OTP)
	s.notifier.AssertExpectations(t)
}

func TestResendCode(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	s.register(t, "ada@example.com")

	s.notifier.On("SendOTP", mock.Anything, "ada@example.com").Return("4321", nil).Once()
	require.NoError(t, s.uc.ResendCode(ctx, "ada@example.com"))

	user, err := s.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "4321", *user.OTP)
	assert.ErrorIs(t, s.uc.ResendCode(ctx, "nobody@example.com"), domain.ErrEmailNotRegistered)
}

func TestSocialLogin_GetOrCreate(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	in := auth.SocialInput{Email: "grace@example.com", FirstName: "Grace", Source: domain.SourceGoogle}

	s.notifier.On("SendOTP", mock.Anything, "grace@example.com").Return("1111", nil).Once()
	first, err := s.uc.SocialLogin(ctx, in)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "grace", first.User.Username)
	assert.Equal(t, domain.SourceGoogle, first.User.Source)
	assert.False(t, first.User.HasUsablePassword())

	second, err := s.uc.SocialLogin(ctx, in)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)
	s.notifier.AssertExpectations(t)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	res := s.register(t, "ada@example.com")

	access, err := s.uc.Refresh(ctx, res.Tokens.Refresh)
	require.NoError(t, err)
	claims, err := s.tokens.Parse(access, token.Access)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	_, err = s.uc.Refresh(ctx, res.Tokens.Access)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	err = s.uc.Logout(ctx, res.User.ID+1, res.Tokens.Refresh)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	require.NoError(t, s.uc.Logout(ctx, res.User.ID, res.Tokens.Refresh))
	assert.ErrorIs(t, s.uc.Logout(ctx, res.User.ID, res.Tokens.Refresh), domain.ErrTokenBlacklisted)

	_, err = s.uc.Refresh(ctx, res.Tokens.Refresh)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
