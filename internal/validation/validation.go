// Package validation sanitizes untrusted client input before it reaches
// the stores. All functions are pure.
package validation

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxNicknameLen     = 32
	MaxTextLen         = 700
	MaxAvatarBytes     = 1 << 20
	MaxAttachmentBytes = 2 << 20
	MaxAttachments     = 6
)

var (
	ErrInvalidImage       = errors.New("invalid image")
	ErrInvalidAttachments = errors.New("invalid attachments")
)

// allowed data URL prefixes; anything else is rejected outright.
var imagePrefixes = []string{
	"data:image/png",
	"data:image/jpeg",
	"data:image/webp",
	"data:image/gif",
}

// Nickname trims surrounding whitespace and clamps to MaxNicknameLen
// characters. No character-set restriction beyond that.
func Nickname(raw string) string {
	return clamp(strings.TrimSpace(raw), MaxNicknameLen)
}

// Text trims and clamps message text to MaxTextLen characters.
func Text(raw string) string {
	return clamp(strings.TrimSpace(raw), MaxTextLen)
}

// ImageDataURL validates a self-describing inline image. The declared
// MIME type must be png, jpeg, webp or gif; the decoded payload must fit
// maxBytes and sniff as an image. The raw encoded length is checked
// first as a cheap bound: base64 inflates by 4/3, so anything longer
// than 2*maxBytes cannot decode under the limit.
func ImageDataURL(raw string, maxBytes int) (string, error) {
	if len(raw) > maxBytes*2 {
		return "", ErrInvalidImage
	}
	header, payload, ok := strings.Cut(raw, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", ErrInvalidImage
	}
	allowed := false
	for _, p := range imagePrefixes {
		if strings.HasPrefix(header, p) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", ErrInvalidImage
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrInvalidImage
	}
	if len(decoded) > maxBytes {
		return "", ErrInvalidImage
	}
	if !strings.HasPrefix(mimetype.Detect(decoded).String(), "image/") {
		return "", ErrInvalidImage
	}
	return raw, nil
}

// OptionalImageDataURL passes nil through unchanged; an optional field
// that is absent stays absent.
func OptionalImageDataURL(raw *string, maxBytes int) (*string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	v, err := ImageDataURL(*raw, maxBytes)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Attachments validates a message's attachment list. The list is
// truncated to MaxAttachments before per-element validation; if any
// element fails, the whole list is rejected rather than silently
// dropping the bad ones.
func Attachments(raw []string) ([]string, error) {
	if raw == nil {
		return []string{}, nil
	}
	if len(raw) > MaxAttachments {
		raw = raw[:MaxAttachments]
	}
	cleaned := make([]string, 0, len(raw))
	for _, item := range raw {
		v, err := ImageDataURL(item, MaxAttachmentBytes)
		if err != nil {
			return nil, ErrInvalidAttachments
		}
		cleaned = append(cleaned, v)
	}
	return cleaned, nil
}

func clamp(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}
