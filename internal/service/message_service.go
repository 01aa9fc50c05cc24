package service

import (
	"fmt"

	"github.com/Netlighter/messenger/internal/domain"
	"github.com/Netlighter/messenger/internal/observability"
	"github.com/Netlighter/messenger/internal/repository"
	"github.com/Netlighter/messenger/internal/validation"
)

// RecentMessageLimit bounds the history feed. Clients poll; anything
// older than the newest 150 messages is out of the window.
const RecentMessageLimit = 150

type MessageService struct {
	messages repository.MessageRepository
}

func NewMessageService(messages repository.MessageRepository) *MessageService {
	return &MessageService{messages: messages}
}

// Post validates and appends one message. Text is trimmed and clamped;
// the attachment list is all-or-nothing: one bad image rejects the
// whole message and the ledger is untouched. A message with neither
// text nor attachments is rejected.
func (s *MessageService) Post(userID uint, text string, attachments []string) error {
	text = validation.Text(text)
	cleaned, err := validation.Attachments(attachments)
	if err != nil {
		observability.RecordMessagePost("invalid_attachments")
		return err
	}
	msg := &domain.Message{
		UserID:      userID,
		Text:        text,
		Attachments: cleaned,
		CreatedAtMS: domain.NowMS(),
	}
	if msg.IsEmpty() {
		observability.RecordMessagePost("empty")
		return ErrEmptyMessage
	}
	if err := s.messages.Create(msg); err != nil {
		observability.RecordMessagePost("error")
		return fmt.Errorf("append message: %w", err)
	}
	observability.RecordMessagePost("success")
	return nil
}

// Recent returns the newest RecentMessageLimit messages in
// chronological order, each with the author's current nickname and
// avatar.
func (s *MessageService) Recent() ([]domain.MessageView, error) {
	return s.messages.ListRecent(RecentMessageLimit)
}
