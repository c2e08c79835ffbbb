package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/notes-bin/imagehoster/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(mr.Addr(), "", 0, 10)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestClient_TagUpsert(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	tag, err := c.GetTagByName(ctx, "nature")
	require.NoError(t, err)
	assert.Nil(t, tag)

	created, err := c.CreateTag(ctx, "nature")
	require.NoError(t, err)
	again, err := c.CreateTag(ctx, "nature")
	require.NoError(t, err)
	assert.Equal(t, created, again)

	found, err := c.GetTagByName(ctx, "nature")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	other, err := c.CreateTag(ctx, "Nature")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, other.ID)
}

func TestClient_CreateTagConcurrent(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, err := c.CreateTag(ctx, "sky")
			if err == nil {
				ids[i] = tag.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	n, err := c.HLen(ctx, keyTagsByID).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClient_ImageLifecycle(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	nature, err := c.CreateTag(ctx, "nature")
	require.NoError(t, err)
	sky, err := c.CreateTag(ctx, "sky")
	require.NoError(t, err)

	img := &model.Image{
		UserID:    "alice",
		Title:     "sunset",
		ImageFile: "cGl4ZWxz",
		Tags:      []model.Tag{*sky, *nature},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, c.InsertImage(ctx, img))
	require.NotEmpty(t, img.ID)

	got, err := c.GetImage(ctx, img.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sunset", got.Title)
	assert.Equal(t, []model.Tag{*sky, *nature}, got.Tags)

	img.Title = "dusk"
	img.Tags = []model.Tag{*nature}
	require.NoError(t, c.ReplaceImage(ctx, img))
	got, err = c.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "dusk", got.Title)
	assert.Equal(t, []model.Tag{*nature}, got.Tags)

	require.NoError(t, c.AddComment(ctx, &model.Comment{Text: "nice", UserID: "bob", ImageID: img.ID}))
	comments, err := c.ListComments(ctx, img.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.NotEmpty(t, comments[0].ID)

	require.NoError(t, c.DeleteImage(ctx, img.ID))
	got, err = c.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	comments, err = c.ListComments(ctx, img.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	tag, err := c.GetTagByName(ctx, "nature")
	require.NoError(t, err)
	assert.NotNil(t, tag, "tags outlive images")
}

func TestClient_ReplaceMissingImage(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	err := c.ReplaceImage(ctx, &model.Image{ID: "deleted-id", UserID: "u", Title: "t", ImageFile: "eA=="})
	assert.ErrorIs(t, err, ErrImageNotFound)

	got, err := c.GetImage(ctx, "deleted-id")
	require.NoError(t, err)
	assert.Nil(t, got)
	images, err := c.ListImages(ctx)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestClient_ReplaceDeletedImage(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	img := &model.Image{UserID: "alice", Title: "sunset", ImageFile: "eA==", CreatedAt: time.Now().UTC()}
	require.NoError(t, c.InsertImage(ctx, img))
	require.NoError(t, c.DeleteImage(ctx, img.ID))

	img.Title = "dusk"
	assert.ErrorIs(t, c.ReplaceImage(ctx, img), ErrImageNotFound)
	got, err := c.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_ListImagesNewestFirst(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &model.Image{UserID: "a", Title: "older", ImageFile: "eA==", CreatedAt: base}
	newer := &model.Image{UserID: "a", Title: "newer", ImageFile: "eA==", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, c.InsertImage(ctx, older))
	require.NoError(t, c.InsertImage(ctx, newer))

	images, err := c.ListImages(ctx)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "newer", images[0].Title)
	assert.Equal(t, "older", images[1].Title)
}

func TestClient_Views(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.IncrementView(ctx, "a"))
	require.NoError(t, c.IncrementView(ctx, "b"))
	require.NoError(t, c.IncrementView(ctx, "b"))

	top, err := c.TopImages(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, top)
}

func TestClient_Users(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	user := &model.User{ID: "u1", Username: "alice", Password: "hash"}
	ok, err := c.CreateUser(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CreateUser(ctx, &model.User{ID: "u2", Username: "alice"})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := c.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	missing, err := c.GetUserByName(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
