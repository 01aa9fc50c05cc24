package repository

import (
	"context"
	"encoding/json"

	"github.com/Netlighter/messenger/internal/domain"
	"github.com/Netlighter/messenger/internal/observability"

	"gorm.io/gorm"
)

// messageRow is the flat join result of a message with its author's
// current identity. Attachments arrive as the serialized column and are
// decoded here, once.
type messageRow struct {
	ID          uint
	Text        string
	Attachments string
	CreatedAt   int64
	Nickname    string
	Avatar      *string
}

type MessageRepository interface {
	Create(m *domain.Message) error
	ListRecent(limit int) ([]domain.MessageView, error)
	Count() (int64, error)
}

type GormMessageRepository struct{ db *gorm.DB }

func NewMessageRepository(db *gorm.DB) MessageRepository { return &GormMessageRepository{db: db} }

func (r *GormMessageRepository) Create(m *domain.Message) error {
	err := r.db.Create(m).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "message", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "message", "create", "success")
	return nil
}

// ListRecent returns the newest limit messages in ascending id order.
// The query takes the last limit rows by id descending and reverses
// them, so truncation drops the oldest messages and never leaves a gap.
func (r *GormMessageRepository) ListRecent(limit int) ([]domain.MessageView, error) {
	var rows []messageRow
	err := r.db.Raw(`
		SELECT m.id, m.text, m.attachments, m.created_at, u.nickname, u.avatar
		FROM messages m
		JOIN users u ON u.id = m.user_id
		ORDER BY m.id DESC
		LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "message", "list_recent", "error")
		return nil, err
	}

	views := make([]domain.MessageView, len(rows))
	for i, row := range rows {
		var attachments domain.AttachmentList
		if err := json.Unmarshal([]byte(row.Attachments), &attachments); err != nil || attachments == nil {
			attachments = domain.AttachmentList{}
		}
		// reverse while copying: rows are newest-first, views oldest-first
		views[len(rows)-1-i] = domain.MessageView{
			ID:          row.ID,
			Text:        row.Text,
			CreatedAtMS: row.CreatedAt,
			Nickname:    row.Nickname,
			Avatar:      row.Avatar,
			Attachments: attachments,
		}
	}
	observability.RecordRepositoryOperation(context.Background(), "message", "list_recent", "success")
	return views, nil
}

func (r *GormMessageRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&domain.Message{}).Count(&n).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "message", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "message", "count", "success")
	return n, nil
}
