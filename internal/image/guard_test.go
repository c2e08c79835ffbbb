package image

import (
	"testing"

	"github.com/notes-bin/imagehoster/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestIsOwner(t *testing.T) {
	img := &model.Image{ID: "1", UserID: "alice"}

	assert.True(t, IsOwner(img, "alice"))
	assert.False(t, IsOwner(img, "bob"))
	assert.False(t, IsOwner(img, ""))
	assert.False(t, IsOwner(&model.Image{ID: "2"}, ""))
	assert.False(t, IsOwner(nil, "alice"))
}
