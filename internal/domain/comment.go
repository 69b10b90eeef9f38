package domain

import "time"

type CommentStatus string

const (
	CommentPending   CommentStatus = "PENDING"
	CommentConfirmed CommentStatus = "CONFIRMED"
	CommentRejected  CommentStatus = "REJECTED"
	CommentExpired   CommentStatus = "EXPIRED"
)

// Terminal reports whether the status permits no further transition.
func (s CommentStatus) Terminal() bool {
	return s == CommentConfirmed || s == CommentRejected || s == CommentExpired
}

type CommentAuthType string

const (
	AuthTypeEmail    CommentAuthType = "EMAIL"
	AuthTypeEthereum CommentAuthType = "ETHEREUM"
)

// CommentAuth is the tagged union of the two confirmation channels.
// Switching on the concrete type keeps both paths exhaustively handled.
type CommentAuth interface {
	AuthType() CommentAuthType
}

// AuthEthereum carries the wallet signature submitted with the comment.
type AuthEthereum struct {
	Signature []byte
}

func (AuthEthereum) AuthType() CommentAuthType { return AuthTypeEthereum }

// AuthEmail marks a comment awaiting out-of-band confirmation.
type AuthEmail struct{}

func (AuthEmail) AuthType() CommentAuthType { return AuthTypeEmail }

// Comment belongs to a Publication. AuthorID is an email address or an
// account address depending on AuthType, never the other. Credential
// holds the wallet signature on the ETHEREUM channel and stays empty
// until token confirmation on the EMAIL channel.
type Comment struct {
	ID            int64           `json:"id"`
	PublicationID int64           `json:"publicationId"`
	Body          string          `json:"body"`
	Status        CommentStatus   `json:"status"`
	AuthType      CommentAuthType `json:"authType"`
	AuthorName    string          `json:"authorName"`
	AuthorID      string          `json:"authorId"`
	Credential    []byte          `json:"-"`
	CDate         time.Time       `json:"cdate"`
}
