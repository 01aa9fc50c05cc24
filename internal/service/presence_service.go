package service

import (
	"time"

	"github.com/Netlighter/messenger/internal/repository"

	"github.com/samber/lo"
)

// PresenceView is one entry of the who-is-online list.
type PresenceView struct {
	Nickname string  `json:"nickname"`
	Avatar   *string `json:"avatar"`
	Online   bool    `json:"online"`
}

// PresenceService derives online status from session recency. It is a
// pure query over session state; there is no presence table to drift
// out of sync with session expiry.
type PresenceService struct {
	users  repository.UserRepository
	window time.Duration
}

func NewPresenceService(users repository.UserRepository, window time.Duration) *PresenceService {
	return &PresenceService{users: users, window: window}
}

// OnlineUsers lists every user, online first, then by nickname
// case-insensitively. A user is online iff some session of theirs was
// seen within the window and has not expired. Repeated polls with no
// state change yield identical ordering.
func (s *PresenceService) OnlineUsers() ([]PresenceView, error) {
	now := time.Now()
	rows, err := s.users.ListPresence(now.Add(-s.window), now)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row repository.PresenceRow, _ int) PresenceView {
		return PresenceView{
			Nickname: row.Nickname,
			Avatar:   row.Avatar,
			Online:   row.Online != 0,
		}
	}), nil
}
