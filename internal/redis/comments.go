package redis

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/notes-bin/imagehoster/internal/model"
)

func (c *Client) AddComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = uuid.NewString()
	data, err := json.Marshal(comment)
	if err != nil {
		return err
	}
	return c.RPush(ctx, imageCommentsKey(comment.ImageID), data).Err()
}

// ListComments returns the comments of an image in posting order.
func (c *Client) ListComments(ctx context.Context, imageID string) ([]model.Comment, error) {
	items, err := c.LRange(ctx, imageCommentsKey(imageID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	comments := make([]model.Comment, 0, len(items))
	for _, item := range items {
		var comment model.Comment
		if err := json.Unmarshal([]byte(item), &comment); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, nil
}
