package model

import "time"

type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	UserID    string    `json:"user_id"`
	ImageID   string    `json:"image_id"`
	CreatedAt time.Time `json:"created_at"`
}
