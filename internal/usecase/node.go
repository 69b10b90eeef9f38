package usecase

import (
	"context"
	"time"

	"github.com/vessel-net/vessel"
	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/statement"
)

// NodeRepository defines persistence/lookup for nodes.
type NodeRepository interface {
	UpsertSelf(ctx context.Context, node domain.Node) error
	GetSelf(ctx context.Context) (domain.Node, error)
	Get(ctx context.Context, address string, hint string) (domain.Node, error)
	UpdateProfile(ctx context.Context, address string, url, title, description string) (domain.Node, error)
}

type ProfileUpdateInput struct {
	Address     string
	URL         string
	Title       string
	Description string
	Timestamp   time.Time
	Signature   []byte
}

type NodeUsecase struct {
	repo NodeRepository
}

func NewNodeUsecase(repo NodeRepository) *NodeUsecase {
	return &NodeUsecase{repo: repo}
}

// EnsureSelf writes the local identity row from config at boot.
func (uc *NodeUsecase) EnsureSelf(ctx context.Context, config domain.Config) error {
	return uc.repo.UpsertSelf(ctx, domain.Node{
		Address:     config.Address,
		URL:         config.URL,
		Title:       config.Title,
		Description: config.Description,
		IsSelf:      true,
	})
}

func (uc *NodeUsecase) Self(ctx context.Context) (domain.Node, error) {
	return uc.repo.GetSelf(ctx)
}

func (uc *NodeUsecase) Get(ctx context.Context, address string, hint string) (domain.Node, error) {
	if !vessel.IsAddress(address) {
		return domain.Node{}, domain.ErrInvalidInput
	}
	return uc.repo.Get(ctx, address, hint)
}

// UpdateProfile applies an attested profile edit.
func (uc *NodeUsecase) UpdateProfile(ctx context.Context, input ProfileUpdateInput) (domain.Node, error) {
	if !vessel.IsAddress(input.Address) || input.URL == "" {
		return domain.Node{}, domain.ErrInvalidInput
	}

	stmt := statement.NodeProfileUpdate{
		Publisher:   input.Address,
		URL:         input.URL,
		Title:       input.Title,
		Description: input.Description,
		Timestamp:   input.Timestamp,
	}
	if err := statement.Verify(stmt, input.Signature, input.Address); err != nil {
		return domain.Node{}, domain.ErrVerification
	}

	return uc.repo.UpdateProfile(ctx, input.Address, input.URL, input.Title, input.Description)
}
