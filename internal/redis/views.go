package redis

import (
	"context"
)

func (c *Client) IncrementView(ctx context.Context, imageID string) error {
	return c.ZIncrBy(ctx, keyViews, 1, imageID).Err()
}

// TopImages returns the ids of the n most viewed images.
func (c *Client) TopImages(ctx context.Context, n int) ([]string, error) {
	return c.ZRevRange(ctx, keyViews, 0, int64(n-1)).Result()
}
