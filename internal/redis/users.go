package redis

import (
	"context"
	"encoding/json"

	"github.com/notes-bin/imagehoster/internal/model"
	"github.com/redis/go-redis/v9"
)

// CreateUser stores a new user. It reports false when the username is taken.
func (c *Client) CreateUser(ctx context.Context, user *model.User) (bool, error) {
	ok, err := c.HSetNX(ctx, keyUsersByName, user.Username, user.ID).Result()
	if err != nil || !ok {
		return false, err
	}
	if err := c.SaveUser(ctx, user); err != nil {
		c.HDel(ctx, keyUsersByName, user.Username)
		return false, err
	}
	return true, nil
}

func (c *Client) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.Set(ctx, userKey(user.ID), data, 0).Err()
}

func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	data, err := c.Get(ctx, userKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByName(ctx context.Context, username string) (*model.User, error) {
	id, err := c.HGet(ctx, keyUsersByName, username).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.GetUser(ctx, id)
}
