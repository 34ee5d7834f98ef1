// Package profile reads and updates the user profile, including picture uploads.
package profile

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/pkg/logger"
	"github.com/fastygo/taskhub/pkg/media"
	"github.com/fastygo/taskhub/repository"
)

const msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// ImageStore persists an uploaded image and returns its public path.
type ImageStore interface {
	SaveImage(dir, filename string, src io.Reader) (string, error)
}

// Upload is one multipart file of the update request.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Uploads carries the optional picture files.
type Uploads struct {
	ProfilePicture *Upload
	CoverPicture   *Upload
}

type UseCase struct {
	users  repository.UserRepository
	images ImageStore
	logger *zap.Logger
}

func New(users repository.UserRepository, images ImageStore, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		images: images,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	return user, nil
}

// UpdateProfile applies patch and uploads and returns the refreshed user.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID int64, patch repository.ProfilePatch, uploads Uploads) (*domain.User, error) {
	if _, err := uc.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	if patch.Username != nil {
		taken, err := uc.users.UsernameExists(ctx, *patch.Username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, usernameTaken()
		}
	}

	v := domain.NewValidationError()
	patch.ProfilePicture = uc.save(ctx, v, "profile_picture", media.ProfilePictures, uploads.ProfilePicture)
	patch.CoverPicture = uc.save(ctx, v, "cover_picture", media.CoverPictures, uploads.CoverPicture)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := uc.users.UpdateProfile(ctx, userID, patch); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, usernameTaken()
		}
		return nil, err
	}
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) save(ctx context.Context, v *domain.ValidationError, field, dir string, up *Upload) *string {
	if up == nil || uc.images == nil {
		return nil
	}
	path, err := uc.images.SaveImage(dir, up.Filename, up.Content)
	if errors.Is(err, media.ErrUnsupportedImage) {
		v.Add(field, msgInvalidImage)
		return nil
	}
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Error("failed to store upload", zap.String("field", field), zap.Error(err))
		v.Add(field, msgInvalidImage)
		return nil
	}
	return &path
}

func usernameTaken() error {
	v := domain.NewValidationError()
	v.Add("username", domain.ErrUsernameTaken.Message)
	return v
}
