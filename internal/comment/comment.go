package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/notes-bin/imagehoster/internal/model"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrEmptyText     = errors.New("comment text is empty")
)

// Store assigns c.ID on AddComment.
type Store interface {
	GetImage(ctx context.Context, id string) (*model.Image, error)
	AddComment(ctx context.Context, c *model.Comment) error
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Add posts text on imageID as userID. The creation date is truncated to the
// day.
func (s *Service) Add(ctx context.Context, userID, imageID, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("get image %s: %w", imageID, err)
	}
	if img == nil {
		return nil, ErrImageNotFound
	}

	now := s.now().UTC()
	c := &model.Comment{
		Text:      text,
		UserID:    userID,
		ImageID:   imageID,
		CreatedAt: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
	if err := s.store.AddComment(ctx, c); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return c, nil
}
