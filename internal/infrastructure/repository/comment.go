package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/internal/infrastructure/database/models"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func commentToDomain(m models.Comment) domain.Comment {
	return domain.Comment{
		ID:            m.ID,
		PublicationID: m.PublicationID,
		Body:          m.Body,
		Status:        domain.CommentStatus(m.Status),
		AuthType:      domain.CommentAuthType(m.AuthType),
		AuthorName:    m.AuthorName,
		AuthorID:      m.AuthorID,
		Credential:    m.Credential,
		CDate:         m.CDate,
	}
}

func (r *CommentRepository) Create(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	model := models.Comment{
		PublicationID: c.PublicationID,
		Body:          c.Body,
		Status:        string(c.Status),
		AuthType:      string(c.AuthType),
		AuthorName:    c.AuthorName,
		AuthorID:      c.AuthorID,
		Credential:    c.Credential,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Comment{}, err
	}
	return r.Get(ctx, model.ID)
}

func (r *CommentRepository) Get(ctx context.Context, id int64) (domain.Comment, error) {
	var model models.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Comment{}, domain.NotFoundError{Resource: "comment"}
		}
		return domain.Comment{}, err
	}
	return commentToDomain(model), nil
}

// Transition moves a PENDING comment to a terminal status, optionally
// setting the credential. Status and credential are written only here;
// the guard on the current status keeps create and confirm from racing,
// and makes a repeated transition report zero rows instead of
// overwriting a terminal state.
func (r *CommentRepository) Transition(ctx context.Context, id int64, to domain.CommentStatus, credential []byte) (bool, error) {
	updates := map[string]any{"status": string(to)}
	if credential != nil {
		updates["credential"] = credential
	}
	result := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND status = ?", id, string(domain.CommentPending)).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "comment"}
	}
	return nil
}

func (r *CommentRepository) ListConfirmed(ctx context.Context, publicationID int64) ([]domain.Comment, error) {
	var rows []models.Comment
	err := r.db.WithContext(ctx).
		Where("publication_id = ? AND status = ?", publicationID, string(domain.CommentConfirmed)).
		Order("c_date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, commentToDomain(row))
	}
	return comments, nil
}

func (r *CommentRepository) CountConfirmed(ctx context.Context, publicationID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("publication_id = ? AND status = ?", publicationID, string(domain.CommentConfirmed)).
		Count(&count).Error
	return count, err
}
