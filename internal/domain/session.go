package domain

import "time"

// Session is one bearer-token grant. A user may hold any number of
// sessions at once; each slides independently on use.
type Session struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	TokenDigest string    `gorm:"size:128;uniqueIndex;not null" json:"-"`
	ExpiresAt   time.Time `gorm:"index;not null" json:"expires_at"`
	LastSeen    time.Time `gorm:"index;not null" json:"last_seen"`
	CreatedAt   time.Time `json:"created_at"`
}
