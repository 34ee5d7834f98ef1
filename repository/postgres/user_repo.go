package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/repository"
)

const userColumns = `
	u.id, u.first_name, u.last_name, u.username, u.email, u.password_hash, u.source,
	u.is_active, u.is_admin, u.is_staff, u.otp, u.date_joined, u.last_login,
	p.id, p.profile_picture, p.cover_picture, p.country, p.city, p.bio, p.gender,
	p.date_of_birth, p.marital_status, p.phone_number, p.work, p.education,
	p.created_at, p.updated_at, p.last_active
`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `u.id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `LOWER(u.email) = LOWER($1)`, email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `u.username = $1`, username)
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
	FROM users u
	LEFT JOIN user_profiles p ON p.user_id = u.id
	WHERE ` + where
	return scanUser(r.pool.QueryRow(ctx, query, arg))
}

func (r *userRepository) UsernameExists(ctx context.Context, username string, exceptID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, username, exceptID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	const insertUser = `
	INSERT INTO users (first_name, last_name, username, email, password_hash, source, is_active, is_admin, is_staff, otp)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, date_joined, last_login
	`
	const insertProfile = `
	INSERT INTO user_profiles (user_id, profile_picture)
	VALUES ($1, $2)
	RETURNING id, created_at, updated_at, last_active
	`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertUser,
			user.FirstName,
			user.LastName,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.Source,
			user.IsActive,
			user.IsAdmin,
			user.IsStaff,
			user.OTP,
		).Scan(&user.ID, &user.DateJoined, &user.LastLogin); err != nil {
			return err
		}

		if user.Profile == nil {
			user.Profile = &domain.Profile{}
		}
		user.Profile.UserID = user.ID
		return tx.QueryRow(ctx, insertProfile, user.ID, user.Profile.ProfilePicture).Scan(
			&user.Profile.ID,
			&user.Profile.CreatedAt,
			&user.Profile.UpdatedAt,
			&user.Profile.LastActive,
		)
	})
	return translateUserError(err)
}

func (r *userRepository) SetOTP(ctx context.Context, id int64, otp *string) error {
	return r.exec(ctx, `UPDATE users SET otp = $2 WHERE id = $1`, id, otp)
}

func (r *userRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, otp = NULL WHERE id = $1`, id, hash)
}

func (r *userRepository) Activate(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET is_active = TRUE, otp = NULL WHERE id = $1`, id)
}

func (r *userRepository) TouchLogin(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, patch repository.ProfilePatch) error {
	const updateUser = `
	UPDATE users
	SET first_name = COALESCE($2, first_name),
		last_name = COALESCE($3, last_name),
		username = COALESCE($4, username)
	WHERE id = $1
	`
	const updateProfile = `
	UPDATE user_profiles
	SET profile_picture = COALESCE($2, profile_picture),
		cover_picture = COALESCE($3, cover_picture),
		country = COALESCE($4, country),
		city = COALESCE($5, city),
		bio = COALESCE($6, bio),
		gender = COALESCE($7, gender),
		date_of_birth = COALESCE($8, date_of_birth),
		marital_status = COALESCE($9, marital_status),
		phone_number = COALESCE($10, phone_number),
		work = COALESCE($11, work),
		education = COALESCE($12, education),
		updated_at = NOW()
	WHERE user_id = $1
	`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateUser, id, patch.FirstName, patch.LastName, patch.Username)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}

		tag, err = tx.Exec(ctx, updateProfile, id,
			patch.ProfilePicture,
			patch.CoverPicture,
			patch.Country,
			patch.City,
			patch.Bio,
			patch.Gender,
			patch.DateOfBirth,
			patch.MaritalStatus,
			patch.PhoneNumber,
			patch.Work,
			patch.Education,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrProfileNotFound
		}
		return nil
	})
	return translateUserError(err)
}

func (r *userRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func translateUserError(err error) error {
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case "users_email_key":
			return domain.ErrEmailTaken
		case "users_username_key":
			return domain.ErrUsernameTaken
		}
		return domain.WrapError(domain.ErrCodeConflict, "duplicate value", err)
	}
	return err
}

func scanUser(row scanner) (*domain.User, error) {
	var user domain.User
	var (
		profile                          domain.Profile
		profileID                        *int64
		picture, cover                   *string
		createdAt, updatedAt, lastActive *time.Time
	)

	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Source,
		&user.IsActive,
		&user.IsAdmin,
		&user.IsStaff,
		&user.OTP,
		&user.DateJoined,
		&user.LastLogin,
		&profileID,
		&picture,
		&cover,
		&profile.Country,
		&profile.City,
		&profile.Bio,
		&profile.Gender,
		&profile.DateOfBirth,
		&profile.MaritalStatus,
		&profile.PhoneNumber,
		&profile.Work,
		&profile.Education,
		&createdAt,
		&updatedAt,
		&lastActive,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	// LEFT JOIN: a user without profile row yields NULL profile columns.
	if profileID != nil {
		profile.ID = *profileID
		profile.UserID = user.ID
		if picture != nil {
			profile.ProfilePicture = *picture
		}
		if cover != nil {
			profile.CoverPicture = *cover
		}
		if createdAt != nil {
			profile.CreatedAt = *createdAt
		}
		if updatedAt != nil {
			profile.UpdatedAt = *updatedAt
		}
		if lastActive != nil {
			profile.LastActive = *lastActive
		}
		user.Profile = &profile
	}
	return &user, nil
}
