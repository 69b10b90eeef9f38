package usecase

import (
	"context"
	"time"

	"github.com/vessel-net/vessel"
	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/statement"
)

// ConnectionRepository defines persistence for follow edges.
type ConnectionRepository interface {
	Create(ctx context.Context, conn domain.Connection) error
	Delete(ctx context.Context, follower, followee string) error
	ListFollowing(ctx context.Context, follower string) ([]domain.Connection, error)
	ListFollowers(ctx context.Context, followee string) ([]domain.Connection, error)
}

type FollowInput struct {
	Follower    string
	Followee    string
	FolloweeURL string
	FollowerURL string
	Timestamp   time.Time
	Signature   []byte
}

type UnfollowInput struct {
	Follower  string
	Followee  string
	Timestamp time.Time
	Signature []byte
}

type ConnectionUsecase struct {
	repo ConnectionRepository
}

func NewConnectionUsecase(repo ConnectionRepository) *ConnectionUsecase {
	return &ConnectionUsecase{repo: repo}
}

func (uc *ConnectionUsecase) Follow(ctx context.Context, input FollowInput) error {
	if !vessel.IsAddress(input.Follower) || !vessel.IsAddress(input.Followee) {
		return domain.ErrInvalidInput
	}
	if input.FolloweeURL == "" || input.FollowerURL == "" {
		return domain.ErrInvalidInput
	}

	stmt := statement.CreateConnection{
		Followee:    input.Followee,
		FolloweeURL: input.FolloweeURL,
		FollowerURL: input.FollowerURL,
		Timestamp:   input.Timestamp,
	}
	if err := statement.Verify(stmt, input.Signature, input.Follower); err != nil {
		return domain.ErrVerification
	}

	return uc.repo.Create(ctx, domain.Connection{
		Follower:  input.Follower,
		Followee:  input.Followee,
		Signature: input.Signature,
	})
}

func (uc *ConnectionUsecase) Unfollow(ctx context.Context, input UnfollowInput) error {
	if !vessel.IsAddress(input.Follower) || !vessel.IsAddress(input.Followee) {
		return domain.ErrInvalidInput
	}

	stmt := statement.DeleteConnection{
		Followee:  input.Followee,
		Follower:  input.Follower,
		Timestamp: input.Timestamp,
	}
	if err := statement.Verify(stmt, input.Signature, input.Follower); err != nil {
		return domain.ErrVerification
	}

	return uc.repo.Delete(ctx, input.Follower, input.Followee)
}

func (uc *ConnectionUsecase) Following(ctx context.Context, follower string) ([]domain.Connection, error) {
	return uc.repo.ListFollowing(ctx, follower)
}

func (uc *ConnectionUsecase) Followers(ctx context.Context, followee string) ([]domain.Connection, error) {
	return uc.repo.ListFollowers(ctx, followee)
}
