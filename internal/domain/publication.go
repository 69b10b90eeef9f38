package domain

import "time"

type ContentType string

const (
	ContentTypePost ContentType = "post"
	ContentTypeFile ContentType = "file"
)

// Content is an immutable blob keyed by its content hash. Identical
// bytes always map to the same row.
type Content struct {
	ContentHash string      `json:"contentHash"`
	Type        ContentType `json:"type"`
	Body        string      `json:"body,omitempty"`
	Filename    string      `json:"filename,omitempty"`
	MimeType    string      `json:"mimeType,omitempty"`
	Size        int64       `json:"size,omitempty"`
	LocalPath   string      `json:"-"`
	CDate       time.Time   `json:"cdate"`
}

// Publication binds a Content to its authoring Node. Signature, when
// non-nil, is an attestation over (contentHash, author, createdAt); a
// signed publication is permanently immutable.
type Publication struct {
	ID          int64     `json:"id"`
	ContentHash string    `json:"contentHash"`
	Content     Content   `json:"content"`
	Author      string    `json:"author"`
	Tags        []string  `json:"tags,omitempty"`
	Signature   []byte    `json:"signature,omitempty"`
	CDate       time.Time `json:"cdate"`
	MDate       time.Time `json:"mdate"`
}

// Signed reports whether the publication carries an attestation.
func (p Publication) Signed() bool {
	return len(p.Signature) > 0
}
