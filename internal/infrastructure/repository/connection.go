package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/internal/infrastructure/database/models"
)

type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func connectionToDomain(m models.Connection) domain.Connection {
	return domain.Connection{
		Follower:  m.Follower,
		Followee:  m.Followee,
		Signature: m.Signature,
		CDate:     m.CDate,
	}
}

func (r *ConnectionRepository) Create(ctx context.Context, conn domain.Connection) error {
	model := models.Connection{
		Follower:  conn.Follower,
		Followee:  conn.Followee,
		Signature: conn.Signature,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower"}, {Name: "followee"}},
		DoNothing: true,
	}).Create(&model).Error
}

func (r *ConnectionRepository) Delete(ctx context.Context, follower, followee string) error {
	result := r.db.WithContext(ctx).
		Delete(&models.Connection{}, "follower = ? AND followee = ?", follower, followee)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "connection"}
	}
	return nil
}

func (r *ConnectionRepository) ListFollowing(ctx context.Context, follower string) ([]domain.Connection, error) {
	var rows []models.Connection
	err := r.db.WithContext(ctx).
		Where("follower = ?", follower).
		Order("c_date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	conns := make([]domain.Connection, 0, len(rows))
	for _, row := range rows {
		conns = append(conns, connectionToDomain(row))
	}
	return conns, nil
}

func (r *ConnectionRepository) ListFollowers(ctx context.Context, followee string) ([]domain.Connection, error) {
	var rows []models.Connection
	err := r.db.WithContext(ctx).
		Where("followee = ?", followee).
		Order("c_date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	conns := make([]domain.Connection, 0, len(rows))
	for _, row := range rows {
		conns = append(conns, connectionToDomain(row))
	}
	return conns, nil
}
