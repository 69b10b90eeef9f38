package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vessel-net/vessel/statement"
)

const commenterKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
const nodeKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

type fakeGateway struct {
	submitErr   error
	submitted   []CommentSubmission
	nextID      int64
	status      string
	commentsErr error
	comments    map[int64][]CommentView
}

func (g *fakeGateway) SubmitComment(ctx context.Context, host string, publicationID int64, submission CommentSubmission) (CommentView, error) {
	if g.submitErr != nil {
		return CommentView{}, g.submitErr
	}
	g.submitted = append(g.submitted, submission)
	g.nextID++
	return CommentView{
		ID:            g.nextID,
		PublicationID: publicationID,
		Body:          submission.Body,
		Status:        g.status,
		AuthType:      submission.AuthType,
		AuthorName:    submission.AuthorName,
		AuthorID:      submission.AuthorID,
	}, nil
}

func (g *fakeGateway) GetComments(ctx context.Context, host string, publicationID int64) (CommentPage, error) {
	if g.commentsErr != nil {
		return CommentPage{}, g.commentsErr
	}
	list := g.comments[publicationID]
	return CommentPage{Comments: list, Count: int64(len(list))}, nil
}

func pendingFixture(t *testing.T, gateway *fakeGateway) (*PendingStore, *statement.WalletSigner, string) {
	t.Helper()

	signer, err := statement.NewWalletSigner(commenterKey)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	nodeSigner, err := statement.NewWalletSigner(nodeKey)
	if err != nil {
		t.Fatalf("failed to create node signer: %v", err)
	}

	store := &PendingStore{
		gateway: gateway,
		signer:  signer,
		actions: make(map[string]*PendingAction),
	}
	return store, signer, nodeSigner.Address()
}

func TestSubmitConfirmedClearsAction(t *testing.T) {
	gateway := &fakeGateway{status: "CONFIRMED"}
	store, signer, nodeAddr := pendingFixture(t, gateway)

	view, err := store.Submit(context.Background(), PendingAction{
		Host:          "node.example",
		Node:          nodeAddr,
		PublicationID: 7,
		Body:          "great post",
		AuthorName:    "alice",
		Commenter:     signer.Address(),
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if view.Status != "CONFIRMED" {
		t.Fatalf("expected CONFIRMED, got %s", view.Status)
	}
	if _, pending := store.Pending("node.example", 7); pending {
		t.Fatal("confirmed action should leave the store")
	}
}

func TestSubmitAtMostOnePerPublication(t *testing.T) {
	gateway := &fakeGateway{submitErr: fmt.Errorf("connection refused")}
	store, signer, nodeAddr := pendingFixture(t, gateway)

	action := PendingAction{
		Host:          "node.example",
		Node:          nodeAddr,
		PublicationID: 7,
		Body:          "great post",
		Commenter:     signer.Address(),
	}

	if _, err := store.Submit(context.Background(), action); err == nil {
		t.Fatal("expected network error")
	}
	if _, pending := store.Pending("node.example", 7); !pending {
		t.Fatal("failed submit should stay pending")
	}

	if _, err := store.Submit(context.Background(), action); !errors.Is(err, ErrActionInFlight) {
		t.Fatalf("expected ErrActionInFlight, got %v", err)
	}

	// A different publication is unaffected.
	other := action
	other.PublicationID = 8
	if _, err := store.Submit(context.Background(), other); errors.Is(err, ErrActionInFlight) {
		t.Fatal("other publications should accept submissions")
	}
}

func TestRetryReusesRetainedBody(t *testing.T) {
	gateway := &fakeGateway{submitErr: fmt.Errorf("connection refused"), status: "CONFIRMED"}
	store, signer, nodeAddr := pendingFixture(t, gateway)

	created := time.Unix(1700000000, 0).UTC()
	_, err := store.Submit(context.Background(), PendingAction{
		Host:          "node.example",
		Node:          nodeAddr,
		PublicationID: 7,
		Body:          "great post",
		Commenter:     signer.Address(),
		CreatedAt:     created,
	})
	if err == nil {
		t.Fatal("expected network error")
	}

	gateway.submitErr = nil
	view, err := store.Retry(context.Background(), "node.example", 7)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if view.Status != "CONFIRMED" {
		t.Fatalf("expected CONFIRMED, got %s", view.Status)
	}

	if len(gateway.submitted) != 1 {
		t.Fatalf("expected exactly one successful submission, got %d", len(gateway.submitted))
	}
	got := gateway.submitted[0]
	if got.Body != "great post" || got.Timestamp != created.Unix() {
		t.Fatalf("retry altered the retained action: %+v", got)
	}

	if _, pending := store.Pending("node.example", 7); pending {
		t.Fatal("confirmed retry should leave the store")
	}
	if _, err := store.Retry(context.Background(), "node.example", 7); !errors.Is(err, ErrNoPendingAction) {
		t.Fatalf("expected ErrNoPendingAction, got %v", err)
	}
}

func TestCancelDropsAction(t *testing.T) {
	gateway := &fakeGateway{submitErr: fmt.Errorf("connection refused")}
	store, signer, nodeAddr := pendingFixture(t, gateway)

	store.Submit(context.Background(), PendingAction{
		Host:          "node.example",
		Node:          nodeAddr,
		PublicationID: 7,
		Body:          "great post",
		Commenter:     signer.Address(),
	})

	if err := store.Cancel("node.example", 7); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, pending := store.Pending("node.example", 7); pending {
		t.Fatal("cancelled action should leave the store")
	}
	if err := store.Cancel("node.example", 7); !errors.Is(err, ErrNoPendingAction) {
		t.Fatalf("expected ErrNoPendingAction, got %v", err)
	}
}

func TestListWithPendingPrependsDraft(t *testing.T) {
	gateway := &fakeGateway{submitErr: fmt.Errorf("connection refused")}
	store, signer, nodeAddr := pendingFixture(t, gateway)

	store.Submit(context.Background(), PendingAction{
		Host:          "node.example",
		Node:          nodeAddr,
		PublicationID: 7,
		Body:          "great post",
		AuthorName:    "alice",
		Commenter:     signer.Address(),
	})

	gateway.comments = map[int64][]CommentView{
		7: {{ID: 1, PublicationID: 7, Body: "first!", Status: "CONFIRMED", AuthorID: "bob@mail.example"}},
	}

	list, err := store.ListWithPending(context.Background(), "node.example", 7)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected draft plus one confirmed comment, got %d", len(list))
	}
	if list[0].Status != "PENDING" || list[0].Body != "great post" {
		t.Fatalf("draft not prepended: %+v", list[0])
	}
	if list[1].Body != "first!" {
		t.Fatalf("confirmed comment displaced: %+v", list[1])
	}

	// Once the draft shows up confirmed on the node, the overlay stops.
	gateway.comments[7] = append(gateway.comments[7], CommentView{
		ID: 2, PublicationID: 7, Body: "great post", Status: "CONFIRMED", AuthorID: signer.Address(),
	})
	list, err = store.ListWithPending(context.Background(), "node.example", 7)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected two confirmed comments without overlay, got %d", len(list))
	}
	if _, pending := store.Pending("node.example", 7); pending {
		t.Fatal("landed draft should leave the store")
	}
}

func TestReconcileResolvesLandedActions(t *testing.T) {
	gateway := &fakeGateway{submitErr: fmt.Errorf("connection refused")}
	store, signer, nodeAddr := pendingFixture(t, gateway)

	store.Submit(context.Background(), PendingAction{
		Host:          "node.example",
		Node:          nodeAddr,
		PublicationID: 7,
		Body:          "great post",
		Commenter:     signer.Address(),
	})
	store.Submit(context.Background(), PendingAction{
		Host:          "node.example",
		Node:          nodeAddr,
		PublicationID: 8,
		Body:          "another one",
		Commenter:     signer.Address(),
	})

	// The first submission actually landed even though the response was
	// lost in transit.
	gateway.comments = map[int64][]CommentView{
		7: {{
			ID:            42,
			PublicationID: 7,
			Body:          "great post",
			Status:        "CONFIRMED",
			AuthorID:      signer.Address(),
		}},
	}

	resolved, err := store.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("expected one resolved action, got %d", resolved)
	}
	if _, pending := store.Pending("node.example", 7); pending {
		t.Fatal("landed action should leave the store")
	}
	if _, pending := store.Pending("node.example", 8); !pending {
		t.Fatal("unlanded action should stay")
	}
}
