package account

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/pkg/id"
)

// MaxImageSize caps avatar uploads.
const MaxImageSize = 5 << 20

const avatarPrefix = "avatars"

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

type AccountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	SetImage(ctx context.Context, accountID, url string) error
	Delete(ctx context.Context, accountID string) error
}

type IdentityStore interface {
	Delete(ctx context.Context, uid string) error
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type Service interface {
	// Delete removes the account and its identity. Stored avatars are
	// removed best-effort.
	Delete(ctx context.Context, uid string) error
	// UploadImage stores a new avatar and returns its public URL.
	UploadImage(ctx context.Context, uid string, r io.Reader) (string, error)
}

type service struct {
	accounts   AccountStore
	identities IdentityStore
	objects    ObjectStore
}

// NewService creates the account service. objects may be nil, in which case
// image uploads report ErrUnavailable.
func NewService(accounts AccountStore, identities IdentityStore, objects ObjectStore) Service {
	return &service{accounts: accounts, identities: identities, objects: objects}
}

func (s *service) Delete(ctx context.Context, uid string) error {
	a, err := s.accounts.Get(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := s.identities.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	s.removeImage(ctx, a.Image)
	return nil
}

func (s *service) UploadImage(ctx context.Context, uid string, r io.Reader) (string, error) {
	if s.objects == nil {
		return "", domain.NewError(domain.ErrUnavailable, "Image storage is not configured")
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", domain.Wrap(domain.ErrBadRequest, "Invalid image", err)
	}
	if len(data) == 0 {
		return "", domain.NewError(domain.ErrBadRequest, "Image is required")
	}
	if len(data) > MaxImageSize {
		return "", domain.NewError(domain.ErrBadRequest, "Image must be 5MB or smaller")
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return "", domain.NewError(domain.ErrBadRequest, "Image must be PNG, JPEG, WEBP or GIF")
	}

	a, err := s.accounts.Get(ctx, uid)
	if err != nil {
		return "", err
	}
	key := id.ObjectKey(avatarPrefix, uid, mt.Extension())
	url, err := s.objects.Upload(ctx, key, bytes.NewReader(data), mt.String())
	if err != nil {
		return "", err
	}
	if err := s.accounts.SetImage(ctx, uid, url); err != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			slog.Warn("orphaned avatar", "key", key, "err", derr)
		}
		return "", err
	}
	s.removeImage(ctx, a.Image)
	return url, nil
}

// removeImage deletes a previous avatar if this store owns it. External URLs
// (Google profile pictures) are left alone.
func (s *service) removeImage(ctx context.Context, url string) {
	if s.objects == nil || url == "" {
		return
	}
	key, ok := s.objects.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("delete avatar failed", "key", key, "err", err)
	}
}
