package models

import "time"

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	IsManager  bool      `json:"is_manager"`
	IsActive   bool      `json:"is_active"`
	LastSeen   time.Time `json:"last_seen"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Mention returns the @username form when available, the first name otherwise.
func (u *User) Mention() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FirstName
}
