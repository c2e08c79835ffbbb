package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/notes-bin/imagehoster/internal/model"
	"github.com/redis/go-redis/v9"
)

// upsertTagScript creates the tag unless the name is already taken and
// returns the id that ends up owning the name.
// KEYS[1] = name -> id hash, KEYS[2] = id -> name hash
// ARGV[1] = name, ARGV[2] = candidate id
var upsertTagScript = redis.NewScript(`
local id = redis.call("HGET", KEYS[1], ARGV[1])
if id then
    return id
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("HSET", KEYS[2], ARGV[2], ARGV[1])
return ARGV[2]
`)

func (c *Client) GetTagByName(ctx context.Context, name string) (*model.Tag, error) {
	id, err := c.HGet(ctx, keyTagsByName, name).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.Tag{ID: id, Name: name}, nil
}

func (c *Client) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	id, err := upsertTagScript.Run(ctx, c.Client, []string{keyTagsByName, keyTagsByID}, name, uuid.NewString()).Text()
	if err != nil {
		return nil, fmt.Errorf("upsert tag: %w", err)
	}
	return &model.Tag{ID: id, Name: name}, nil
}

// tagsByID resolves ids in order. Ids without a name are skipped.
func (c *Client) tagsByID(ctx context.Context, ids []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(ids))
	if len(ids) == 0 {
		return tags, nil
	}
	names, err := c.HMGet(ctx, keyTagsByID, ids...).Result()
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		s, ok := name.(string)
		if !ok {
			continue
		}
		tags = append(tags, model.Tag{ID: ids[i], Name: s})
	}
	return tags, nil
}
