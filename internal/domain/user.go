package domain

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Nickname     string    `gorm:"size:32;uniqueIndex;not null" json:"nickname"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Salt         string    `gorm:"size:64;not null" json:"-"`
	Avatar       *string   `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserView is the public projection returned to clients. Avatar stays nil
// until the user uploads one.
type UserView struct {
	ID       uint    `json:"id"`
	Nickname string  `json:"nickname"`
	Avatar   *string `json:"avatar"`
}

func (u *User) View() UserView {
	return UserView{ID: u.ID, Nickname: u.Nickname, Avatar: u.Avatar}
}
