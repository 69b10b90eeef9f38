package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vessel-net/vessel/client"
	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/internal/infrastructure/database/models"
)

type NodeRepository struct {
	db     *gorm.DB
	client *client.Client
}

func NewNodeRepository(db *gorm.DB, cl *client.Client) *NodeRepository {
	return &NodeRepository{db: db, client: cl}
}

func nodeToDomain(m models.Node) domain.Node {
	return domain.Node{
		Address:     m.Address,
		URL:         m.URL,
		Title:       m.Title,
		Description: m.Description,
		IsSelf:      m.IsSelf,
		CDate:       m.CDate,
		MDate:       m.MDate,
	}
}

// UpsertSelf writes the local node's identity row at boot.
func (r *NodeRepository) UpsertSelf(ctx context.Context, node domain.Node) error {
	model := models.Node{
		Address:     node.Address,
		URL:         node.URL,
		Title:       node.Title,
		Description: node.Description,
		IsSelf:      true,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "title", "description", "is_self"}),
	}).Create(&model).Error
}

func (r *NodeRepository) GetSelf(ctx context.Context) (domain.Node, error) {
	var model models.Node
	err := r.db.WithContext(ctx).Where("is_self = ?", true).Take(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Node{}, domain.NotFoundError{Resource: "node"}
		}
		return domain.Node{}, err
	}
	return nodeToDomain(model), nil
}

// Get looks a node up locally, falling back to a network fetch when the
// address is unknown. Resolved peers are cached in the nodes table.
func (r *NodeRepository) Get(ctx context.Context, address string, hint string) (domain.Node, error) {
	var model models.Node
	err := r.db.WithContext(ctx).Where("address = ?", address).Take(&model).Error
	if err == nil {
		return nodeToDomain(model), nil
	}

	if r.client == nil {
		return domain.Node{}, domain.NotFoundError{Resource: "node"}
	}

	remote, err := r.client.GetNode(ctx, address, hint)
	if err != nil {
		return domain.Node{}, err
	}

	newNode := models.Node{
		Address:     remote.Address,
		URL:         remote.URL,
		Title:       remote.WellKnown.Title,
		Description: remote.WellKnown.Description,
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "title", "description"}),
	}).Create(&newNode).Error; err != nil {
		return domain.Node{}, err
	}

	return nodeToDomain(newNode), nil
}

// UpdateProfile applies attested profile field changes.
func (r *NodeRepository) UpdateProfile(ctx context.Context, address string, url, title, description string) (domain.Node, error) {
	result := r.db.WithContext(ctx).Model(&models.Node{}).
		Where("address = ?", address).
		Updates(map[string]any{
			"url":         url,
			"title":       title,
			"description": description,
		})
	if result.Error != nil {
		return domain.Node{}, result.Error
	}
	if result.RowsAffected == 0 {
		return domain.Node{}, domain.NotFoundError{Resource: "node"}
	}

	var model models.Node
	if err := r.db.WithContext(ctx).Where("address = ?", address).Take(&model).Error; err != nil {
		return domain.Node{}, err
	}
	return nodeToDomain(model), nil
}
