package model

// Tag 名称全局唯一，多个图片共享同一条记录
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
