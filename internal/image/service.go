// Package image implements the create, edit and delete workflow for images:
// payload validation, tag resolution and the owner-only mutation rule.
package image

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/notes-bin/imagehoster/internal/model"
	"github.com/notes-bin/imagehoster/internal/tags"
)

// Store is the image persistence boundary. GetImage returns nil, nil when the
// image does not exist. InsertImage assigns img.ID. DeleteImage also removes
// the image's comments.
type Store interface {
	GetImage(ctx context.Context, id string) (*model.Image, error)
	ListImages(ctx context.Context) ([]*model.Image, error)
	InsertImage(ctx context.Context, img *model.Image) error
	ReplaceImage(ctx context.Context, img *model.Image) error
	DeleteImage(ctx context.Context, id string) error
}

type CommentLister interface {
	ListComments(ctx context.Context, imageID string) ([]model.Comment, error)
}

type CreateInput struct {
	Title       string
	Description string
	Tags        string
	Upload      *Upload
}

// UpdateInput replaces every mutable field of an image. A nil or empty Upload
// keeps the current payload.
type UpdateInput struct {
	Title       string
	Description string
	Tags        string
	Upload      *Upload
}

// EditForm is what the edit page is pre-filled with.
type EditForm struct {
	Image *model.Image `json:"image"`
	Tags  string       `json:"tags"`
}

type Service struct {
	images   Store
	tags     tags.Store
	comments CommentLister
	now      func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for image dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(images Store, tagStore tags.Store, comments CommentLister, opts ...Option) *Service {
	s := &Service{images: images, tags: tagStore, comments: comments, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Image, error) {
	payload, err := ResolveCreate(in.Upload)
	if err != nil {
		return nil, err
	}
	imageTags, err := tags.Normalize(ctx, in.Tags, s.tags)
	if err != nil {
		return nil, err
	}

	img := &model.Image{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ImageFile:   payload,
		Tags:        imageTags,
		CreatedAt:   s.now(),
	}
	if err := s.images.InsertImage(ctx, img); err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}
	slog.Info("Image uploaded", "image_id", img.ID, "user_id", userID, "tags", len(imageTags))
	return img, nil
}

func (s *Service) Update(ctx context.Context, userID, imageID string, in UpdateInput) (*model.Image, error) {
	current, err := s.load(ctx, imageID)
	if err != nil {
		return nil, err
	}
	// 先校验所有权，再解析任何字段
	if !IsOwner(current, userID) {
		view, err := s.view(ctx, current)
		if err != nil {
			return nil, err
		}
		return nil, reject(ErrNotOwner, msgNotOwnerEdit, view)
	}

	payload, err := ResolveUpdate(in.Upload, current.ImageFile)
	if err != nil {
		return nil, err
	}
	imageTags, err := tags.Normalize(ctx, in.Tags, s.tags)
	if err != nil {
		return nil, err
	}

	updated := &model.Image{
		ID:          imageID,
		UserID:      current.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ImageFile:   payload,
		Tags:        imageTags,
		CreatedAt:   s.now(),
	}
	if err := s.images.ReplaceImage(ctx, updated); err != nil {
		return nil, fmt.Errorf("replace image: %w", err)
	}
	slog.Info("Image updated", "image_id", imageID, "user_id", userID, "payload_replaced", payload != current.ImageFile)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, imageID string) error {
	img, err := s.load(ctx, imageID)
	if err != nil {
		return err
	}
	if !IsOwner(img, userID) {
		view, err := s.view(ctx, img)
		if err != nil {
			return err
		}
		return reject(ErrNotOwner, msgNotOwnerDelete, view)
	}
	if err := s.images.DeleteImage(ctx, imageID); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	slog.Info("Image deleted", "image_id", imageID, "user_id", userID)
	return nil
}

// EditForm returns the pre-filled edit form for the owner. Anyone else gets a
// NotOwner rejection carrying the read-only view.
func (s *Service) EditForm(ctx context.Context, userID, imageID string) (*EditForm, error) {
	img, err := s.load(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if !IsOwner(img, userID) {
		view, err := s.view(ctx, img)
		if err != nil {
			return nil, err
		}
		return nil, reject(ErrNotOwner, msgNotOwnerEdit, view)
	}
	return &EditForm{Image: img, Tags: tags.Stringify(img.Tags)}, nil
}

func (s *Service) View(ctx context.Context, imageID string) (*View, error) {
	img, err := s.load(ctx, imageID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, img)
}

func (s *Service) List(ctx context.Context) ([]*model.Image, error) {
	return s.images.ListImages(ctx)
}

func (s *Service) load(ctx context.Context, imageID string) (*model.Image, error) {
	img, err := s.images.GetImage(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("get image %s: %w", imageID, err)
	}
	if img == nil {
		return nil, reject(ErrNotFound, msgNotFound, nil)
	}
	return img, nil
}

func (s *Service) view(ctx context.Context, img *model.Image) (*View, error) {
	comments, err := s.comments.ListComments(ctx, img.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments for image %s: %w", img.ID, err)
	}
	return &View{Image: img, Tags: img.Tags, Comments: comments}, nil
}
