package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notes-bin/imagehoster/internal/model"
	"github.com/redis/go-redis/v9"
)

// imageRecord 是图片在 redis 中的存储格式，标签单独保存为 ID 列表
type imageRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageFile   string    `json:"image_file"`
	CreatedAt   time.Time `json:"created_at"`
}

var ErrImageNotFound = errors.New("image not found")

func (c *Client) InsertImage(ctx context.Context, img *model.Image) error {
	img.ID = uuid.NewString()
	data, tagIDs, err := encodeImage(img)
	if err != nil {
		return err
	}
	_, err = c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		queueImageWrite(ctx, pipe, img, data, tagIDs)
		return nil
	})
	return err
}

// ReplaceImage overwrites an existing image. The key is watched so an image
// deleted in the meantime is not written back.
func (c *Client) ReplaceImage(ctx context.Context, img *model.Image) error {
	if img.ID == "" {
		return fmt.Errorf("image id cannot be empty")
	}
	data, tagIDs, err := encodeImage(img)
	if err != nil {
		return err
	}

	key := imageKey(img.ID)
	return c.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrImageNotFound, img.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			queueImageWrite(ctx, pipe, img, data, tagIDs)
			return nil
		})
		return err
	}, key)
}

func encodeImage(img *model.Image) ([]byte, []interface{}, error) {
	data, err := json.Marshal(imageRecord{
		ID:          img.ID,
		UserID:      img.UserID,
		Title:       img.Title,
		Description: img.Description,
		ImageFile:   img.ImageFile,
		CreatedAt:   img.CreatedAt,
	})
	if err != nil {
		return nil, nil, err
	}
	tagIDs := make([]interface{}, len(img.Tags))
	for i, tag := range img.Tags {
		tagIDs[i] = tag.ID
	}
	return data, tagIDs, nil
}

// 在同一事务中保存图片元数据和标签
func queueImageWrite(ctx context.Context, pipe redis.Pipeliner, img *model.Image, data []byte, tagIDs []interface{}) {
	pipe.Set(ctx, imageKey(img.ID), data, 0)
	pipe.Del(ctx, imageTagsKey(img.ID))
	if len(tagIDs) > 0 {
		pipe.RPush(ctx, imageTagsKey(img.ID), tagIDs...)
	}
	pipe.ZAdd(ctx, keyImages, redis.Z{Score: float64(img.CreatedAt.UnixNano()), Member: img.ID})
}

func (c *Client) GetImage(ctx context.Context, id string) (*model.Image, error) {
	data, err := c.Get(ctx, imageKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec imageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	tagIDs, err := c.LRange(ctx, imageTagsKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	tags, err := c.tagsByID(ctx, tagIDs)
	if err != nil {
		return nil, err
	}

	return &model.Image{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Title:       rec.Title,
		Description: rec.Description,
		ImageFile:   rec.ImageFile,
		Tags:        tags,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

// ListImages returns all images, newest first.
func (c *Client) ListImages(ctx context.Context) ([]*model.Image, error) {
	ids, err := c.ZRevRange(ctx, keyImages, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return c.imagesByID(ctx, ids)
}

func (c *Client) imagesByID(ctx context.Context, ids []string) ([]*model.Image, error) {
	images := []*model.Image{}
	for _, id := range ids {
		img, err := c.GetImage(ctx, id)
		if err != nil {
			return nil, err
		}
		if img == nil {
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

// DeleteImage removes the image together with its tag list, comments and
// view count. Tag records themselves are kept.
func (c *Client) DeleteImage(ctx context.Context, id string) error {
	_, err := c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, imageKey(id), imageTagsKey(id), imageCommentsKey(id))
		pipe.ZRem(ctx, keyImages, id)
		pipe.ZRem(ctx, keyViews, id)
		return nil
	})
	return err
}
