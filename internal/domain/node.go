package domain

import "time"

// Node is a participant in the network, identified by its account
// address and canonical URL. Exactly one node per database has
// IsSelf set; that row is the local node's own identity.
type Node struct {
	Address     string    `json:"address"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsSelf      bool      `json:"isSelf,omitempty"`
	CDate       time.Time `json:"cdate"`
	MDate       time.Time `json:"mdate"`
}

// Connection is a directed follow edge, unique per pair. The signature,
// when present, is the follower's attestation over the follow action.
type Connection struct {
	Follower  string    `json:"follower"`
	Followee  string    `json:"followee"`
	Signature []byte    `json:"signature,omitempty"`
	CDate     time.Time `json:"cdate"`
}
