package model

import "time"

type Image struct {
	ID          string    `json:"id"`          // UUID
	UserID      string    `json:"user_id"`     // 所有者 ID
	Title       string    `json:"title"`       // 标题
	Description string    `json:"description"` // 描述
	ImageFile   string    `json:"image_file"`  // base64 编码的图片内容
	Tags        []Tag     `json:"tags"`        // 标签（有序）
	CreatedAt   time.Time `json:"created_at"`  // 上传/修改时间
}
