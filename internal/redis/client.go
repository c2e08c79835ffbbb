package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Client stores images, tags, comments and users in redis. Records are JSON
// encoded; ordered collections use lists and sorted sets.
type Client struct {
	*redis.Client
}

func NewClient(addr, password string, db, poolSize int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to Redis", "addr", addr)
	return &Client{client}, nil
}

// 键名
const (
	keyImages      = "images"      // ZSET 图片 ID，按上传时间排序
	keyViews       = "image:views" // ZSET 访问次数
	keyTagsByName  = "tags:name"   // HASH 标签名 -> ID
	keyTagsByID    = "tags:id"     // HASH ID -> 标签名
	keyUsersByName = "users:name"  // HASH 用户名 -> ID
)

func imageKey(id string) string         { return "image:" + id }
func imageTagsKey(id string) string     { return "image:" + id + ":tags" }
func imageCommentsKey(id string) string { return "image:" + id + ":comments" }
func userKey(id string) string          { return "user:" + id }
