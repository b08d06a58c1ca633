package models

import (
	"time"
)

// User represents one app user, identified either by device install or by
// a linked Google account.
type User struct {
	ID          int64     `json:"id" db:"id"`
	DeviceID    *string   `json:"device_id,omitempty" db:"device_id"`
	GoogleSub   *string   `json:"-" db:"google_sub"`
	Name        string    `json:"name" db:"name"`
	Email       *string   `json:"email,omitempty" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	LastLoginAt time.Time `json:"last_login_at" db:"last_login_at"`
}

// Bookmark is a recipe the user saved for later.
type Bookmark struct {
	UserID         int64     `json:"-" db:"user_id"`
	RecipeID       int64     `json:"recipe_id" db:"recipe_id"`
	Title          string    `json:"title" db:"title"`
	ImageURL       string    `json:"image_url" db:"image_url"`
	ReadyInMinutes int       `json:"ready_in_minutes" db:"ready_in_minutes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
