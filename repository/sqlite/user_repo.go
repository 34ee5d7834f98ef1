package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/repository"
)

const selectUser = `
SELECT
  u.id, u.first_name, u.last_name, u.username, u.email, u.password_hash, u.source,
  u.is_active, u.is_admin, u.is_staff, u.otp, u.date_joined, u.last_login,
  p.id AS profile_id, p.profile_picture, p.cover_picture, p.country, p.city, p.bio,
  p.gender, p.date_of_birth, p.marital_status, p.phone_number, p.work, p.education,
  p.created_at AS profile_created_at, p.updated_at AS profile_updated_at, p.last_active
FROM users u
LEFT JOIN user_profiles p ON p.user_id = u.id
`

type userRow struct {
	ID               int64          `db:"id"`
	FirstName        string         `db:"first_name"`
	LastName         string         `db:"last_name"`
	Username         string         `db:"username"`
	Email            string         `db:"email"`
	PasswordHash     string         `db:"password_hash"`
	Source           string         `db:"source"`
	IsActive         bool           `db:"is_active"`
	IsAdmin          bool           `db:"is_admin"`
	IsStaff          bool           `db:"is_staff"`
	OTP              sql.NullString `db:"otp"`
	DateJoined       time.Time      `db:"date_joined"`
	LastLogin        time.Time      `db:"last_login"`
	ProfileID        sql.NullInt64  `db:"profile_id"`
	ProfilePicture   sql.NullString `db:"profile_picture"`
	CoverPicture     sql.NullString `db:"cover_picture"`
	Country          sql.NullString `db:"country"`
	City             sql.NullString `db:"city"`
	Bio              sql.NullString `db:"bio"`
	Gender           sql.NullString `db:"gender"`
	DateOfBirth      sql.NullTime   `db:"date_of_birth"`
	MaritalStatus    sql.NullString `db:"marital_status"`
	PhoneNumber      sql.NullString `db:"phone_number"`
	Work             sql.NullString `db:"work"`
	Education        sql.NullString `db:"education"`
	ProfileCreatedAt sql.NullTime   `db:"profile_created_at"`
	ProfileUpdatedAt sql.NullTime   `db:"profile_updated_at"`
	LastActive       sql.NullTime   `db:"last_active"`
}

type UserRepository struct {
	db  *sqlx.DB
	now clock
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, now: utcNow}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE u.id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE u.email = ?`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE u.username = ?`, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return mapUserRow(row), nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string, exceptID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE username = ? AND id <> ?)`, username, exceptID)
	return exists, err
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	now := r.now()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (first_name, last_name, username, email, password_hash, source,
			is_active, is_admin, is_staff, otp, date_joined, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.FirstName, user.LastName, user.Username, user.Email, user.PasswordHash, user.Source,
		user.IsActive, user.IsAdmin, user.IsStaff, user.OTP, now, now,
	)
	if err != nil {
		return translateUserError(err)
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	if user.Profile == nil {
		user.Profile = &domain.Profile{}
	}
	res, err = tx.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, profile_picture, created_at, updated_at, last_active)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Profile.ProfilePicture, now, now, now,
	)
	if err != nil {
		return err
	}
	if user.Profile.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	user.DateJoined, user.LastLogin = now, now
	user.Profile.UserID = user.ID
	user.Profile.CreatedAt, user.Profile.UpdatedAt, user.Profile.LastActive = now, now, now
	return nil
}

func (r *UserRepository) SetOTP(ctx context.Context, id int64, otp *string) error {
	return r.exec(ctx, `UPDATE users SET otp = ? WHERE id = ?`, otp, id)
}

func (r *UserRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ?, otp = NULL WHERE id = ?`, hash, id)
}

func (r *UserRepository) Activate(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET is_active = 1, otp = NULL WHERE id = ?`, id)
}

func (r *UserRepository) TouchLogin(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, r.now(), id)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, patch repository.ProfilePatch) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET first_name = COALESCE(?, first_name),
			last_name = COALESCE(?, last_name),
			username = COALESCE(?, username)
		WHERE id = ?`,
		patch.FirstName, patch.LastName, patch.Username, id,
	)
	if err != nil {
		return translateUserError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE user_profiles
		SET profile_picture = COALESCE(?, profile_picture),
			cover_picture = COALESCE(?, cover_picture),
			country = COALESCE(?, country),
			city = COALESCE(?, city),
			bio = COALESCE(?, bio),
			gender = COALESCE(?, gender),
			date_of_birth = COALESCE(?, date_of_birth),
			marital_status = COALESCE(?, marital_status),
			phone_number = COALESCE(?, phone_number),
			work = COALESCE(?, work),
			education = COALESCE(?, education),
			updated_at = ?
		WHERE user_id = ?`,
		patch.ProfilePicture, patch.CoverPicture, patch.Country, patch.City, patch.Bio,
		patch.Gender, patch.DateOfBirth, patch.MaritalStatus, patch.PhoneNumber, patch.Work,
		patch.Education, r.now(), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProfileNotFound
	}
	return tx.Commit()
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func translateUserError(err error) error {
	switch {
	case uniqueViolation(err, "users.email"):
		return domain.ErrEmailTaken
	case uniqueViolation(err, "users.username"):
		return domain.ErrUsernameTaken
	}
	return err
}

func mapUserRow(row userRow) *domain.User {
	user := &domain.User{
		ID:           row.ID,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Source:       row.Source,
		IsActive:     row.IsActive,
		IsAdmin:      row.IsAdmin,
		IsStaff:      row.IsStaff,
		OTP:          nullString(row.OTP),
		DateJoined:   row.DateJoined,
		LastLogin:    row.LastLogin,
	}
	if !row.ProfileID.Valid {
		return user
	}

	user.Profile = &domain.Profile{
		ID:             row.ProfileID.Int64,
		UserID:         row.ID,
		ProfilePicture: row.ProfilePicture.String,
		CoverPicture:   row.CoverPicture.String,
		Country:        nullString(row.Country),
		City:           nullString(row.City),
		Bio:            nullString(row.Bio),
		Gender:         nullString(row.Gender),
		DateOfBirth:    nullTime(row.DateOfBirth),
		MaritalStatus:  nullString(row.MaritalStatus),
		PhoneNumber:    nullString(row.PhoneNumber),
		Work:           nullString(row.Work),
		Education:      nullString(row.Education),
		CreatedAt:      row.ProfileCreatedAt.Time,
		UpdatedAt:      row.ProfileUpdatedAt.Time,
		LastActive:     row.LastActive.Time,
	}
	return user
}
