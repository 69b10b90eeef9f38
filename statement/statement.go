// Package statement builds and verifies the canonical, domain-separated
// messages that back every attestable action on the network. Building is
// pure data construction; signing and verification live in signer.go and
// verify.go.
package statement

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vessel-net/vessel/internal/utils"
)

// Domain separator. Signatures made under a different application or
// version never verify here.
const (
	Domain  = "vessel-statement"
	Version = "v1"
)

const (
	KindStatementOfSource = "statement-of-source"
	KindCreateConnection  = "create-connection"
	KindDeleteConnection  = "delete-connection"
	KindCommentSignature  = "comment-signature"
	KindDeleteComment     = "delete-comment"
	KindNodeProfileUpdate = "node-profile-update"
)

// Statement is a structured message ready for signing. Canonical returns
// the exact bytes a signature attests to; two statements with the same
// fields always canonicalize identically.
type Statement interface {
	Kind() string
	Canonical() ([]byte, error)
}

func canonical(kind string, fields utils.OrderedKVMap[any]) ([]byte, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("%s/%s/%s/%s", Domain, Version, kind, body)), nil
}

func kv(order int64, v any) utils.OrderedKV[any] {
	return utils.OrderedKV[any]{Value: v, Order: order}
}

// StatementOfSource asserts that Publisher is the source of the content
// identified by ContentHash. CreatedAt is the publication's original
// creation time, never the signing time, so a signature can be produced
// after the fact without shifting the attested moment.
type StatementOfSource struct {
	ContentHash string
	Publisher   string
	CreatedAt   time.Time
}

func (s StatementOfSource) Kind() string { return KindStatementOfSource }

func (s StatementOfSource) Canonical() ([]byte, error) {
	return canonical(s.Kind(), utils.OrderedKVMap[any]{
		"contentHash": kv(0, s.ContentHash),
		"publisher":   kv(1, s.Publisher),
		"createdAt":   kv(2, s.CreatedAt.Unix()),
	})
}

// CreateConnection attests that the node at FollowerURL follows
// Followee's node at FolloweeURL.
type CreateConnection struct {
	Followee    string
	FolloweeURL string
	FollowerURL string
	Timestamp   time.Time
}

func (s CreateConnection) Kind() string { return KindCreateConnection }

func (s CreateConnection) Canonical() ([]byte, error) {
	return canonical(s.Kind(), utils.OrderedKVMap[any]{
		"followee":    kv(0, s.Followee),
		"followeeUrl": kv(1, s.FolloweeURL),
		"followerUrl": kv(2, s.FollowerURL),
		"timestamp":   kv(3, s.Timestamp.Unix()),
	})
}

// DeleteConnection is an attested unfollow.
type DeleteConnection struct {
	Followee  string
	Follower  string
	Timestamp time.Time
}

func (s DeleteConnection) Kind() string { return KindDeleteConnection }

func (s DeleteConnection) Canonical() ([]byte, error) {
	return canonical(s.Kind(), utils.OrderedKVMap[any]{
		"followee":  kv(0, s.Followee),
		"follower":  kv(1, s.Follower),
		"timestamp": kv(2, s.Timestamp.Unix()),
	})
}

// CommentSignature attests authorship of a comment body on a specific
// publication hosted by a specific node. BodyHash is the content hash of
// the comment body bytes.
type CommentSignature struct {
	Node          string
	Commenter     string
	PublicationID int64
	BodyHash      string
	Timestamp     time.Time
}

func (s CommentSignature) Kind() string { return KindCommentSignature }

func (s CommentSignature) Canonical() ([]byte, error) {
	return canonical(s.Kind(), utils.OrderedKVMap[any]{
		"node":          kv(0, s.Node),
		"commenter":     kv(1, s.Commenter),
		"publicationId": kv(2, s.PublicationID),
		"bodyHash":      kv(3, s.BodyHash),
		"timestamp":     kv(4, s.Timestamp.Unix()),
	})
}

// DeleteComment attests deletion intent by the commenter or the hosting
// node.
type DeleteComment struct {
	Node      string
	CommentID int64
	Commenter string
}

func (s DeleteComment) Kind() string { return KindDeleteComment }

func (s DeleteComment) Canonical() ([]byte, error) {
	return canonical(s.Kind(), utils.OrderedKVMap[any]{
		"node":      kv(0, s.Node),
		"commentId": kv(1, s.CommentID),
		"commenter": kv(2, s.Commenter),
	})
}

// NodeProfileUpdate attests to profile field changes on a node.
type NodeProfileUpdate struct {
	Publisher   string
	URL         string
	Title       string
	Description string
	Timestamp   time.Time
}

func (s NodeProfileUpdate) Kind() string { return KindNodeProfileUpdate }

func (s NodeProfileUpdate) Canonical() ([]byte, error) {
	return canonical(s.Kind(), utils.OrderedKVMap[any]{
		"publisher":   kv(0, s.Publisher),
		"url":         kv(1, s.URL),
		"title":       kv(2, s.Title),
		"description": kv(3, s.Description),
		"timestamp":   kv(4, s.Timestamp.Unix()),
	})
}
