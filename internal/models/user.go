package models

import "time"

type User struct {
	ID         int64     `db:"id" json:"id"`
	DiscordID  string    `db:"discord_id" json:"discord_id,omitempty"`
	GoogleID   string    `db:"google_id" json:"google_id,omitempty"`
	Email      string    `db:"email" json:"email,omitempty"`
	Name       string    `db:"name" json:"name"`
	AvatarURL  string    `db:"avatar_url" json:"avatar_url"`
	IsAdmin    bool      `db:"is_admin" json:"is_admin"`
	IsBanned   bool      `db:"is_banned" json:"is_banned"`
	IsVerified bool      `db:"is_verified" json:"is_verified"`
	IsStaff    bool      `db:"is_staff" json:"is_staff"`
	IsOwner    bool      `db:"is_owner" json:"is_owner"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Author is the public slice of a user attached to posts and comments.
type Author struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	AvatarURL  string `db:"avatar_url" json:"avatar_url"`
	IsVerified bool   `db:"is_verified" json:"is_verified"`
}

func (u *User) Public() Author {
	return Author{
		ID:         u.ID,
		Name:       u.Name,
		AvatarURL:  u.AvatarURL,
		IsVerified: u.IsVerified,
	}
}
