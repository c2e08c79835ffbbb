package image

import (
	"errors"

	"github.com/notes-bin/imagehoster/internal/model"
)

var (
	ErrInvalidContentType = errors.New("invalid content type")
	ErrNotOwner           = errors.New("not the owner of the image")
	ErrNotFound           = errors.New("image not found")
)

// 面向用户的提示信息
const (
	msgInvalidContentType = "Please upload png, bmp, gif, jpeg and wbmp image file type"
	msgNotOwnerEdit       = "Only the owner of the image can edit the image"
	msgNotOwnerDelete     = "Only the owner of the image can delete the image"
	msgNotFound           = "Image not found"
)

// View is everything needed to render a single image page.
type View struct {
	Image    *model.Image    `json:"image"`
	Tags     []model.Tag     `json:"tags"`
	Comments []model.Comment `json:"comments"`
}

// Rejection is returned when a request is refused before anything is
// committed. Kind is one of the Err* sentinels and can be matched with
// errors.Is. View is set when the caller should fall back to showing the
// image read-only.
type Rejection struct {
	Kind    error
	Message string
	View    *View
}

func (r *Rejection) Error() string {
	return r.Message
}

func (r *Rejection) Unwrap() error {
	return r.Kind
}

func reject(kind error, message string, view *View) *Rejection {
	return &Rejection{Kind: kind, Message: message, View: view}
}
