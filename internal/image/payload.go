package image

import (
	"encoding/base64"
)

// allowedTypes 允许上传的图片类型（区分大小写）
var allowedTypes = map[string]struct{}{
	"image/png":           {},
	"image/bmp":           {},
	"image/x-windows-bmp": {},
	"image/gif":           {},
	"image/x-icon":        {},
	"image/jpeg":          {},
	"image/vnd.wap.wbmp":  {},
}

// Upload is a file as received from the client, with the media type it
// declared.
type Upload struct {
	ContentType string
	Data        []byte
}

func (u *Upload) empty() bool {
	return u == nil || len(u.Data) == 0
}

// IsAllowedType reports whether contentType is an accepted image type.
func IsAllowedType(contentType string) bool {
	_, ok := allowedTypes[contentType]
	return ok
}

// ResolveCreate validates and encodes the payload of a new image. A missing
// or empty file is rejected like an unsupported type.
func ResolveCreate(upload *Upload) (string, error) {
	if upload.empty() || !IsAllowedType(upload.ContentType) {
		return "", reject(ErrInvalidContentType, msgInvalidContentType, nil)
	}
	return encode(upload.Data), nil
}

// ResolveUpdate returns prior when no new file was supplied, otherwise the
// validated encoding of the new file.
func ResolveUpdate(upload *Upload, prior string) (string, error) {
	if upload.empty() {
		return prior, nil
	}
	if !IsAllowedType(upload.ContentType) {
		return "", reject(ErrInvalidContentType, msgInvalidContentType, nil)
	}
	return encode(upload.Data), nil
}

func encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode returns the raw bytes of a stored payload.
func Decode(payload string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(payload)
}
