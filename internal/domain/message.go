package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AttachmentList is the ordered set of inline image data URLs on a
// message. Attachments have no identity of their own, so the list is
// serialized into a single column rather than a separate relation.
type AttachmentList []string

func (a AttachmentList) Value() (driver.Value, error) {
	if a == nil {
		a = AttachmentList{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *AttachmentList) Scan(value any) error {
	if value == nil {
		*a = AttachmentList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("attachments: unsupported column type")
	}
	if len(raw) == 0 {
		*a = AttachmentList{}
		return nil
	}
	return json.Unmarshal(raw, a)
}

// Message is one immutable ledger row. ID is the monotonic ledger order;
// CreatedAtMS is milliseconds since epoch.
type Message struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	Text        string         `gorm:"size:700;not null" json:"text"`
	Attachments AttachmentList `gorm:"type:text;not null" json:"attachments"`
	CreatedAtMS int64          `gorm:"column:created_at;not null" json:"created_at"`
}

// IsEmpty reports whether the message carries neither text nor
// attachments. Empty messages never reach the ledger.
func (m *Message) IsEmpty() bool {
	return m.Text == "" && len(m.Attachments) == 0
}

// MessageView resolves the author's current nickname and avatar at read
// time, so avatar changes apply retroactively to history.
type MessageView struct {
	ID          uint           `json:"id"`
	Text        string         `json:"text"`
	CreatedAtMS int64          `json:"createdAt"`
	Nickname    string         `json:"nickname"`
	Avatar      *string        `json:"avatar"`
	Attachments AttachmentList `json:"attachments"`
}

func NowMS() int64 { return time.Now().UnixMilli() }
