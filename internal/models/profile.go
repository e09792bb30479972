package models

import "time"

// Profile is a directory entry for a portal user.
type Profile struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	DisplayName  string     `db:"display_name" json:"display_name"`
	Department   string     `db:"department" json:"department"`
	AvatarURL    *string    `db:"avatar_url" json:"avatar_url"`
	IsOnline     bool       `db:"is_online" json:"is_online"`
	SoundEnabled bool       `db:"sound_enabled" json:"sound_enabled"`
	IsAdmin      bool       `db:"is_admin" json:"is_admin"`
	LastSeenAt   *time.Time `db:"last_seen_at" json:"last_seen_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// ProfileUpdate carries the user-mutable fields; nil means unchanged.
type ProfileUpdate struct {
	DisplayName  *string `json:"display_name"`
	Department   *string `json:"department"`
	AvatarURL    *string `json:"avatar_url"`
	SoundEnabled *bool   `json:"sound_enabled"`
}
