package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/statement"
)

type mockNodeRepo struct {
	nodes map[string]domain.Node
}

func newMockNodeRepo() *mockNodeRepo {
	return &mockNodeRepo{nodes: map[string]domain.Node{}}
}

func (m *mockNodeRepo) UpsertSelf(ctx context.Context, node domain.Node) error {
	node.IsSelf = true
	m.nodes[node.Address] = node
	return nil
}

func (m *mockNodeRepo) GetSelf(ctx context.Context) (domain.Node, error) {
	for _, n := range m.nodes {
		if n.IsSelf {
			return n, nil
		}
	}
	return domain.Node{}, domain.NotFoundError{Resource: "node"}
}

func (m *mockNodeRepo) Get(ctx context.Context, address string, hint string) (domain.Node, error) {
	n, ok := m.nodes[address]
	if !ok {
		return domain.Node{}, domain.NotFoundError{Resource: "node"}
	}
	return n, nil
}

func (m *mockNodeRepo) UpdateProfile(ctx context.Context, address string, url, title, description string) (domain.Node, error) {
	n, ok := m.nodes[address]
	if !ok {
		return domain.Node{}, domain.NotFoundError{Resource: "node"}
	}
	n.URL = url
	n.Title = title
	n.Description = description
	m.nodes[address] = n
	return n, nil
}

func TestUpdateProfileAttested(t *testing.T) {
	repo := newMockNodeRepo()
	uc := NewNodeUsecase(repo)

	signer, err := statement.NewWalletSigner(authorKey)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}

	if err := uc.EnsureSelf(context.Background(), domain.Config{
		Address: signer.Address(),
		URL:     "https://old.example",
		Title:   "old title",
	}); err != nil {
		t.Fatalf("ensure self failed: %v", err)
	}

	ts := time.Unix(1700000000, 0)
	sig, err := statement.Sign(statement.NodeProfileUpdate{
		Publisher:   signer.Address(),
		URL:         "https://new.example",
		Title:       "new title",
		Description: "a better description",
		Timestamp:   ts,
	}, signer)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	node, err := uc.UpdateProfile(context.Background(), ProfileUpdateInput{
		Address:     signer.Address(),
		URL:         "https://new.example",
		Title:       "new title",
		Description: "a better description",
		Timestamp:   ts,
		Signature:   sig,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if node.Title != "new title" || node.URL != "https://new.example" {
		t.Fatalf("profile not applied: %+v", node)
	}
}

func TestUpdateProfileRejectsTamperedFields(t *testing.T) {
	repo := newMockNodeRepo()
	uc := NewNodeUsecase(repo)

	signer, _ := statement.NewWalletSigner(authorKey)
	uc.EnsureSelf(context.Background(), domain.Config{Address: signer.Address(), URL: "https://old.example"})

	ts := time.Unix(1700000000, 0)
	sig, _ := statement.Sign(statement.NodeProfileUpdate{
		Publisher: signer.Address(),
		URL:       "https://new.example",
		Title:     "honest title",
		Timestamp: ts,
	}, signer)

	// Title altered after signing.
	_, err := uc.UpdateProfile(context.Background(), ProfileUpdateInput{
		Address:   signer.Address(),
		URL:       "https://new.example",
		Title:     "dishonest title",
		Timestamp: ts,
		Signature: sig,
	})
	if !errors.Is(err, domain.ErrVerification) {
		t.Fatalf("expected verification error, got %v", err)
	}
}
