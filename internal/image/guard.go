package image

import "github.com/notes-bin/imagehoster/internal/model"

// IsOwner reports whether userID owns img. An empty userID never owns anything.
func IsOwner(img *model.Image, userID string) bool {
	if img == nil || userID == "" {
		return false
	}
	return img.UserID == userID
}
