package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notes-bin/imagehoster/internal/db"
	"github.com/notes-bin/imagehoster/internal/model"
)

const upsertTagQuery = `
	INSERT INTO tags (id, name) VALUES (?, ?)
	ON CONFLICT(name) DO NOTHING
`

func (s *Store) GetTagByName(ctx context.Context, name string) (*model.Tag, error) {
	tag := model.Tag{Name: name}
	err := db.GetExecutor(ctx, s.db).QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", name).Scan(&tag.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// CreateTag inserts the tag unless the name already exists and returns the
// stored record either way.
func (s *Store) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	var tag *model.Tag
	err := db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		if _, err := db.GetExecutor(txCtx, s.db).ExecContext(txCtx, upsertTagQuery, uuid.NewString(), name); err != nil {
			return fmt.Errorf("failed to upsert tag: %w", err)
		}
		var err error
		tag, err = s.GetTagByName(txCtx, name)
		return err
	})
	return tag, err
}

const insertImageQuery = `
	INSERT INTO images (id, user_id, title, description, image_file, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

func (s *Store) InsertImage(ctx context.Context, img *model.Image) error {
	img.ID = uuid.NewString()
	return db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		_, err := db.GetExecutor(txCtx, s.db).ExecContext(txCtx, insertImageQuery,
			img.ID, img.UserID, img.Title, img.Description, img.ImageFile, img.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
		return s.setImageTags(txCtx, img.ID, img.Tags)
	})
}

const replaceImageQuery = `
	UPDATE images
	SET user_id = ?, title = ?, description = ?, image_file = ?, created_at = ?
	WHERE id = ?
`

func (s *Store) ReplaceImage(ctx context.Context, img *model.Image) error {
	return db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		res, err := db.GetExecutor(txCtx, s.db).ExecContext(txCtx, replaceImageQuery,
			img.UserID, img.Title, img.Description, img.ImageFile, img.CreatedAt.UTC(), img.ID)
		if err != nil {
			return fmt.Errorf("failed to update image: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("image not found: %s", img.ID)
		}
		return s.setImageTags(txCtx, img.ID, img.Tags)
	})
}

func (s *Store) setImageTags(ctx context.Context, imageID string, tags []model.Tag) error {
	exec := db.GetExecutor(ctx, s.db)
	if _, err := exec.ExecContext(ctx, "DELETE FROM image_tags WHERE image_id = ?", imageID); err != nil {
		return fmt.Errorf("failed to clear image tags: %w", err)
	}
	for i, tag := range tags {
		_, err := exec.ExecContext(ctx,
			"INSERT INTO image_tags (image_id, tag_id, position) VALUES (?, ?, ?)", imageID, tag.ID, i)
		if err != nil {
			return fmt.Errorf("failed to link tag %s: %w", tag.Name, err)
		}
	}
	return nil
}

const selectImageColumns = `SELECT id, user_id, title, description, image_file, created_at FROM images`

func (s *Store) GetImage(ctx context.Context, id string) (*model.Image, error) {
	var img model.Image
	err := s.db.QueryRowContext(ctx, selectImageColumns+" WHERE id = ?", id).Scan(
		&img.ID, &img.UserID, &img.Title, &img.Description, &img.ImageFile, &img.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	tags, err := s.imageTags(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	img.Tags = tags[id]
	if img.Tags == nil {
		img.Tags = []model.Tag{}
	}
	return &img, nil
}

// ListImages returns all images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]*model.Image, error) {
	rows, err := s.db.QueryContext(ctx, selectImageColumns+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	images, err := scanImages(rows)
	if err != nil {
		return nil, err
	}
	return images, s.attachTags(ctx, images)
}

func scanImages(rows *sql.Rows) ([]*model.Image, error) {
	defer rows.Close()
	images := []*model.Image{}
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.UserID, &img.Title, &img.Description, &img.ImageFile, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

func (s *Store) attachTags(ctx context.Context, images []*model.Image) error {
	ids := make([]string, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	tags, err := s.imageTags(ctx, ids)
	if err != nil {
		return err
	}
	for _, img := range images {
		img.Tags = tags[img.ID]
		if img.Tags == nil {
			img.Tags = []model.Tag{}
		}
	}
	return nil
}

// imageTags returns the ordered tags of every image in ids.
func (s *Store) imageTags(ctx context.Context, ids []string) (map[string][]model.Tag, error) {
	out := make(map[string][]model.Tag, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `
		SELECT it.image_id, t.id, t.name
		FROM image_tags it JOIN tags t ON t.id = it.tag_id
		WHERE it.image_id IN (?` + strings.Repeat(",?", len(ids)-1) + `)
		ORDER BY it.image_id, it.position`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get image tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var imageID string
		var tag model.Tag
		if err := rows.Scan(&imageID, &tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out[imageID] = append(out[imageID], tag)
	}
	return out, rows.Err()
}

// DeleteImage removes the image; tag links and comments go with it through
// ON DELETE CASCADE.
func (s *Store) DeleteImage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM images WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func (s *Store) AddComment(ctx context.Context, c *model.Comment) error {
	c.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO comments (id, text, user_id, image_id, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.Text, c.UserID, c.ImageID, c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (s *Store) ListComments(ctx context.Context, imageID string) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, user_id, image_id, created_at FROM comments WHERE image_id = ? ORDER BY rowid", imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()
	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.UserID, &c.ImageID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) IncrementView(ctx context.Context, imageID string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE images SET views = views + 1 WHERE id = ?", imageID)
	return err
}

// TopImages returns the ids of the n most viewed images.
func (s *Store) TopImages(ctx context.Context, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM images WHERE views > 0 ORDER BY views DESC, created_at DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateUser stores a new user. It reports false when the username is taken.
func (s *Store) CreateUser(ctx context.Context, user *model.User) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(username) DO NOTHING",
		user.ID, user.Username, user.Password, user.CreatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) SaveUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET username = ?, password = ? WHERE id = ?",
		user.Username, user.Password, user.ID)
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) GetUserByName(ctx context.Context, username string) (*model.User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *Store) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password, created_at FROM users WHERE "+column+" = ?", value).Scan(
		&user.ID, &user.Username, &user.Password, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.CreatedAt = createdAt
	return &user, nil
}
