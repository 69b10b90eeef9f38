package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vessel-net/vessel"
	"github.com/vessel-net/vessel/statement"
)

// ErrActionInFlight rejects a second submission while one is still
// unconfirmed. At most one pending comment exists per publication.
var ErrActionInFlight = fmt.Errorf("an unconfirmed action is already in flight for this publication")

// ErrNoPendingAction reports a retry or cancel against a key that holds
// nothing.
var ErrNoPendingAction = fmt.Errorf("no pending action for this publication")

// commentGateway is the slice of Client the pending store needs.
type commentGateway interface {
	SubmitComment(ctx context.Context, host string, publicationID int64, submission CommentSubmission) (CommentView, error)
	GetComments(ctx context.Context, host string, publicationID int64) (CommentPage, error)
}

// PendingAction retains everything needed to re-sign and re-submit a
// comment whose outcome is not yet known.
type PendingAction struct {
	Host          string
	Node          string
	PublicationID int64
	Body          string
	AuthorName    string
	Commenter     string
	CreatedAt     time.Time

	// CommentID is filled in once the hosting node accepted the
	// submission, even if confirmation is still outstanding.
	CommentID int64
}

// PendingStore tracks optimistic comment submissions on the wallet
// channel. An action enters the store before the network round trip and
// leaves it only on confirmation, cancellation, or reconciliation.
type PendingStore struct {
	mu      sync.Mutex
	gateway commentGateway
	signer  statement.Signer
	actions map[string]*PendingAction
}

func NewPendingStore(c *Client, signer statement.Signer) *PendingStore {
	return &PendingStore{
		gateway: c,
		signer:  signer,
		actions: make(map[string]*PendingAction),
	}
}

func actionKey(host string, publicationID int64) string {
	return fmt.Sprintf("%s/%d", host, publicationID)
}

// Submit signs and submits a new comment. On any failure the action
// stays in the store so Retry can re-drive it with the retained body.
func (s *PendingStore) Submit(ctx context.Context, action PendingAction) (CommentView, error) {
	if action.Body == "" || action.Commenter == "" || action.Node == "" {
		return CommentView{}, fmt.Errorf("incomplete pending action")
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}

	key := actionKey(action.Host, action.PublicationID)

	s.mu.Lock()
	if _, exists := s.actions[key]; exists {
		s.mu.Unlock()
		return CommentView{}, ErrActionInFlight
	}
	s.actions[key] = &action
	s.mu.Unlock()

	return s.drive(ctx, key)
}

// Retry re-invokes the signer over the retained body and submits again.
func (s *PendingStore) Retry(ctx context.Context, host string, publicationID int64) (CommentView, error) {
	key := actionKey(host, publicationID)

	s.mu.Lock()
	_, exists := s.actions[key]
	s.mu.Unlock()
	if !exists {
		return CommentView{}, ErrNoPendingAction
	}

	return s.drive(ctx, key)
}

func (s *PendingStore) drive(ctx context.Context, key string) (CommentView, error) {
	s.mu.Lock()
	action, exists := s.actions[key]
	if !exists {
		s.mu.Unlock()
		return CommentView{}, ErrNoPendingAction
	}
	snapshot := *action
	s.mu.Unlock()

	stmt := statement.CommentSignature{
		Node:          snapshot.Node,
		Commenter:     snapshot.Commenter,
		PublicationID: snapshot.PublicationID,
		BodyHash:      vessel.HashContent([]byte(snapshot.Body)),
		Timestamp:     snapshot.CreatedAt,
	}
	signature, err := statement.Sign(stmt, s.signer)
	if err != nil {
		return CommentView{}, fmt.Errorf("failed to sign comment: %v", err)
	}

	view, err := s.gateway.SubmitComment(ctx, snapshot.Host, snapshot.PublicationID, CommentSubmission{
		Body:       snapshot.Body,
		AuthorName: snapshot.AuthorName,
		AuthorID:   snapshot.Commenter,
		AuthType:   "ETHEREUM",
		Signature:  hex.EncodeToString(signature),
		Timestamp:  snapshot.CreatedAt.Unix(),
	})
	if err != nil {
		return CommentView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.actions[key]; ok {
		current.CommentID = view.ID
		if view.Status == "CONFIRMED" {
			delete(s.actions, key)
		}
	}
	return view, nil
}

// Cancel abandons the pending action without contacting the node.
func (s *PendingStore) Cancel(host string, publicationID int64) error {
	key := actionKey(host, publicationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.actions[key]; !exists {
		return ErrNoPendingAction
	}
	delete(s.actions, key)
	return nil
}

// Pending looks up the in-flight action for a publication, if any.
func (s *PendingStore) Pending(host string, publicationID int64) (PendingAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, exists := s.actions[actionKey(host, publicationID)]
	if !exists {
		return PendingAction{}, false
	}
	return *action, true
}

// List snapshots every in-flight action.
func (s *PendingStore) List() []PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingAction, 0, len(s.actions))
	for _, action := range s.actions {
		out = append(out, *action)
	}
	return out
}

// ListWithPending fetches a publication's confirmed comments and
// prepends the local draft, if one is in flight, so the commenter sees
// their own words while confirmation is outstanding.
func (s *PendingStore) ListWithPending(ctx context.Context, host string, publicationID int64) ([]CommentView, error) {
	page, err := s.gateway.GetComments(ctx, host, publicationID)
	if err != nil {
		return nil, err
	}

	action, pending := s.Pending(host, publicationID)
	if !pending {
		return page.Comments, nil
	}
	if containsComment(page.Comments, action) {
		// The draft already landed; drop it rather than show it twice.
		s.Cancel(host, publicationID)
		return page.Comments, nil
	}

	draft := CommentView{
		ID:            action.CommentID,
		PublicationID: action.PublicationID,
		Body:          action.Body,
		Status:        "PENDING",
		AuthType:      "ETHEREUM",
		AuthorName:    action.AuthorName,
		AuthorID:      action.Commenter,
		CDate:         action.CreatedAt,
	}
	return append([]CommentView{draft}, page.Comments...), nil
}

// Reconcile refetches confirmed comments for every pending action and
// drops the actions that turn out to have landed. It returns the number
// of actions resolved this pass.
func (s *PendingStore) Reconcile(ctx context.Context) (int, error) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.actions))
	snapshots := make([]PendingAction, 0, len(s.actions))
	for key, action := range s.actions {
		keys = append(keys, key)
		snapshots = append(snapshots, *action)
	}
	s.mu.Unlock()

	resolved := 0
	var lastErr error
	for i, snapshot := range snapshots {
		page, err := s.gateway.GetComments(ctx, snapshot.Host, snapshot.PublicationID)
		if err != nil {
			lastErr = err
			continue
		}
		if !containsComment(page.Comments, snapshot) {
			continue
		}

		s.mu.Lock()
		if _, exists := s.actions[keys[i]]; exists {
			delete(s.actions, keys[i])
			resolved++
		}
		s.mu.Unlock()
	}
	return resolved, lastErr
}

func containsComment(comments []CommentView, action PendingAction) bool {
	for _, comment := range comments {
		if action.CommentID != 0 && comment.ID == action.CommentID {
			return true
		}
		if strings.EqualFold(comment.AuthorID, action.Commenter) && comment.Body == action.Body {
			return true
		}
	}
	return false
}
