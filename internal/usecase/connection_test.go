package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/statement"
)

type mockConnectionRepo struct {
	conns map[[2]string]domain.Connection
}

func newMockConnectionRepo() *mockConnectionRepo {
	return &mockConnectionRepo{conns: map[[2]string]domain.Connection{}}
}

func (m *mockConnectionRepo) Create(ctx context.Context, conn domain.Connection) error {
	m.conns[[2]string{conn.Follower, conn.Followee}] = conn
	return nil
}

func (m *mockConnectionRepo) Delete(ctx context.Context, follower, followee string) error {
	key := [2]string{follower, followee}
	if _, ok := m.conns[key]; !ok {
		return domain.NotFoundError{Resource: "connection"}
	}
	delete(m.conns, key)
	return nil
}

func (m *mockConnectionRepo) ListFollowing(ctx context.Context, follower string) ([]domain.Connection, error) {
	var out []domain.Connection
	for _, c := range m.conns {
		if c.Follower == follower {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockConnectionRepo) ListFollowers(ctx context.Context, followee string) ([]domain.Connection, error) {
	var out []domain.Connection
	for _, c := range m.conns {
		if c.Followee == followee {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestFollowUnfollowRoundtrip(t *testing.T) {
	repo := newMockConnectionRepo()
	uc := NewConnectionUsecase(repo)

	signer, err := statement.NewWalletSigner(authorKey)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	followee := "0x0000000000000000000000000000000000000002"
	ts := time.Unix(1700000000, 0)

	sig, err := statement.Sign(statement.CreateConnection{
		Followee:    followee,
		FolloweeURL: "https://followee.example",
		FollowerURL: "https://follower.example",
		Timestamp:   ts,
	}, signer)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	err = uc.Follow(context.Background(), FollowInput{
		Follower:    signer.Address(),
		Followee:    followee,
		FolloweeURL: "https://followee.example",
		FollowerURL: "https://follower.example",
		Timestamp:   ts,
		Signature:   sig,
	})
	if err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	following, _ := uc.Following(context.Background(), signer.Address())
	if len(following) != 1 {
		t.Fatalf("expected one connection, got %d", len(following))
	}

	unsig, _ := statement.Sign(statement.DeleteConnection{
		Followee:  followee,
		Follower:  signer.Address(),
		Timestamp: ts,
	}, signer)

	err = uc.Unfollow(context.Background(), UnfollowInput{
		Follower:  signer.Address(),
		Followee:  followee,
		Timestamp: ts,
		Signature: unsig,
	})
	if err != nil {
		t.Fatalf("unfollow failed: %v", err)
	}
	if len(repo.conns) != 0 {
		t.Fatalf("expected connection removed")
	}
}

func TestFollowRejectsForeignSignature(t *testing.T) {
	uc := NewConnectionUsecase(newMockConnectionRepo())

	signer, _ := statement.NewWalletSigner(authorKey)
	followee := "0x0000000000000000000000000000000000000002"
	ts := time.Unix(1700000000, 0)

	sig, _ := statement.Sign(statement.CreateConnection{
		Followee:    followee,
		FolloweeURL: "https://followee.example",
		FollowerURL: "https://follower.example",
		Timestamp:   ts,
	}, signer)

	// Claimed follower differs from the actual signer.
	err := uc.Follow(context.Background(), FollowInput{
		Follower:    "0x0000000000000000000000000000000000000003",
		Followee:    followee,
		FolloweeURL: "https://followee.example",
		FollowerURL: "https://follower.example",
		Timestamp:   ts,
		Signature:   sig,
	})
	if !errors.Is(err, domain.ErrVerification) {
		t.Fatalf("expected verification error, got %v", err)
	}
}
