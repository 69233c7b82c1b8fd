package user

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// AvatarStorage is the external file-storage collaborator. The real backend
// (object storage, CDN) lives outside this service; only the URL it hands
// back is persisted here.
type AvatarStorage interface {
	Upload(ctx context.Context, userID uuid.UUID, file io.Reader) (url string, err error)
}

var _ AvatarStorage = (*DiscardAvatarStorage)(nil)

// DiscardAvatarStorage drains the upload and returns a deterministic URL.
// Used in development and tests where no storage backend is wired.
type DiscardAvatarStorage struct {
	BaseURL string
}

func (s *DiscardAvatarStorage) Upload(_ context.Context, userID uuid.UUID, file io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", fmt.Errorf("drain avatar upload: %w", err)
	}
	return fmt.Sprintf("%s/avatars/%s", s.BaseURL, userID), nil
}
