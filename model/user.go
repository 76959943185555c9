package model

import "time"

// User represents an account in the system.
//
// Two credential columns coexist on purpose: PasswordHash is a bcrypt hash
// used by the bespoke JWT login, while EncryptedPassword is a reversible
// AES-GCM ciphertext of the same password. The Subsonic token scheme needs
// the plaintext recoverable server-side to derive MD5(password+salt).
type User struct {
	ID                int64     `json:"id"`
	ApiKey            string    `json:"apiKey"` // external GUID, never the row id
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	EncryptedPassword string    `json:"-"`
	PublicKey         string    `json:"-"` // per-user key for HMAC/stream tokens
	IsAdmin           bool      `json:"isAdmin"`
	IsLocked          bool      `json:"-"`
	LastLoginAt       time.Time `json:"lastLoginAt"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// UserInfo is the minimal authenticated-user projection handed to protocol
// handlers after a successful authentication. It is a view, not a stored
// entity.
type UserInfo struct {
	ID        int64  `json:"id"`
	ApiKey    string `json:"apiKey"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	PublicKey string `json:"-"`
}

// Info projects the full account row down to the authenticated view.
func (u *User) Info() *UserInfo {
	return &UserInfo{
		ID:        u.ID,
		ApiKey:    u.ApiKey,
		Username:  u.Username,
		Email:     u.Email,
		PublicKey: u.PublicKey,
	}
}
