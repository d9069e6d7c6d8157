package entity

import (
	"time"

	"github.com/google/uuid"
)

// db model
type Notification struct {
	Id          uuid.UUID  `json:"id" db:"id"`
	UserId      uuid.UUID  `json:"userId" db:"user_id"`
	Type        string     `json:"type" db:"type"`
	Title       string     `json:"title" db:"title"`
	Body        string     `json:"body" db:"body"`
	Data        StringMap  `json:"data" db:"data"`
	ClickAction string     `json:"clickAction" db:"click_action"`
	Read        bool       `json:"read" db:"read"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	ReadAt      *time.Time `json:"readAt" db:"read_at"`
}

// controller model
type NotificationOutputModel struct {
	Id          string            `json:"id"`
	UserId      string            `json:"userId"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
	ClickAction string            `json:"clickAction"`
	Read        bool              `json:"read"`
	CreatedAt   string            `json:"createdAt"`
}
