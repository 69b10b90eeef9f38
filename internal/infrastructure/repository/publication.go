package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/internal/infrastructure/database/models"
)

const publicationCacheTTL = 300 // seconds

type PublicationRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

func NewPublicationRepository(db *gorm.DB, mc *memcache.Client) *PublicationRepository {
	return &PublicationRepository{db: db, mc: mc}
}

// cacheKey hashes the content hash down to a short key. Memcached keys
// are capped at 250 bytes, so never embed raw identifiers.
func cacheKey(contentHash string) string {
	return fmt.Sprintf("pub:%x", xxh3.HashString(contentHash))
}

func publicationToModel(p domain.Publication) models.Publication {
	return models.Publication{
		ID:          p.ID,
		ContentHash: p.ContentHash,
		Author:      p.Author,
		Tags:        p.Tags,
		Signature:   p.Signature,
		// Zero CDate falls back to the column default; a signed publish
		// carries the attested creation time through explicitly.
		CDate: p.CDate,
	}
}

func publicationToDomain(m models.Publication) domain.Publication {
	return domain.Publication{
		ID:          m.ID,
		ContentHash: m.ContentHash,
		Author:      m.Author,
		Tags:        m.Tags,
		Signature:   m.Signature,
		CDate:       m.CDate,
		MDate:       m.MDate,
		Content: domain.Content{
			ContentHash: m.Content.ContentHash,
			Type:        domain.ContentType(m.Content.Type),
			Body:        m.Content.Body,
			Filename:    m.Content.Filename,
			MimeType:    m.Content.MimeType,
			Size:        m.Content.Size,
			LocalPath:   m.Content.LocalPath,
			CDate:       m.Content.CDate,
		},
	}
}

// Create stores the content blob and its publication in one
// transaction. Identical content bytes land on the existing row.
func (r *PublicationRepository) Create(ctx context.Context, content domain.Content, pub domain.Publication) (domain.Publication, error) {
	model := publicationToModel(pub)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contentModel := models.Content{
			ContentHash: content.ContentHash,
			Type:        string(content.Type),
			Body:        content.Body,
			Filename:    content.Filename,
			MimeType:    content.MimeType,
			Size:        content.Size,
			LocalPath:   content.LocalPath,
		}

		if err := tx.Clauses(clause.OnConflict{
			DoNothing: true,
		}).Create(&contentModel).Error; err != nil {
			return err
		}

		if err := tx.Create(&model).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return domain.Publication{}, err
	}

	return r.GetByID(ctx, model.ID)
}

func (r *PublicationRepository) GetByID(ctx context.Context, id int64) (domain.Publication, error) {
	var model models.Publication
	err := r.db.WithContext(ctx).Preload("Content").
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Publication{}, domain.NotFoundError{Resource: "publication"}
		}
		return domain.Publication{}, err
	}
	return publicationToDomain(model), nil
}

// GetByHash resolves a content hash to its publication, read-through
// cached in memcached.
func (r *PublicationRepository) GetByHash(ctx context.Context, contentHash string) (domain.Publication, error) {
	if r.mc != nil {
		if item, err := r.mc.Get(cacheKey(contentHash)); err == nil {
			var cached domain.Publication
			if err := json.Unmarshal(item.Value, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var model models.Publication
	err := r.db.WithContext(ctx).Preload("Content").
		Where("content_hash = ?", contentHash).
		Take(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Publication{}, domain.NotFoundError{Resource: "publication"}
		}
		return domain.Publication{}, err
	}

	pub := publicationToDomain(model)

	if r.mc != nil {
		if b, err := json.Marshal(pub); err == nil {
			r.mc.Set(&memcache.Item{
				Key:        cacheKey(contentHash),
				Value:      b,
				Expiration: publicationCacheTTL,
			})
		}
	}

	return pub, nil
}

func (r *PublicationRepository) List(ctx context.Context, until time.Time, limit int) ([]domain.Publication, error) {
	var rows []models.Publication
	err := r.db.WithContext(ctx).Preload("Content").
		Where("c_date < ?", until).
		Order("c_date desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	publications := make([]domain.Publication, 0, len(rows))
	for _, row := range rows {
		publications = append(publications, publicationToDomain(row))
	}
	return publications, nil
}

// SetSignature performs the one-way draft-to-signed transition. The
// guard on signature IS NULL makes a re-sign attempt a no-op at the
// database level; the usecase surfaces it as an immutability error.
func (r *PublicationRepository) SetSignature(ctx context.Context, id int64, signature []byte) error {
	result := r.db.WithContext(ctx).Model(&models.Publication{}).
		Where("id = ? AND signature IS NULL", id).
		Update("signature", signature)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrImmutable
	}
	r.invalidate(ctx, id)
	return nil
}

// ReplaceContent swaps an unsigned publication's content for new bytes.
// Content rows are append-only; the old row stays for other referents.
func (r *PublicationRepository) ReplaceContent(ctx context.Context, id int64, content domain.Content) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contentModel := models.Content{
			ContentHash: content.ContentHash,
			Type:        string(content.Type),
			Body:        content.Body,
			Filename:    content.Filename,
			MimeType:    content.MimeType,
			Size:        content.Size,
			LocalPath:   content.LocalPath,
		}
		if err := tx.Clauses(clause.OnConflict{
			DoNothing: true,
		}).Create(&contentModel).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Publication{}).
			Where("id = ? AND signature IS NULL", id).
			Update("content_hash", content.ContentHash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrImmutable
		}
		return nil
	})
}

func (r *PublicationRepository) invalidate(ctx context.Context, id int64) {
	if r.mc == nil {
		return
	}
	var model models.Publication
	if err := r.db.WithContext(ctx).Select("content_hash").Where("id = ?", id).Take(&model).Error; err != nil {
		return
	}
	r.mc.Delete(cacheKey(model.ContentHash))
}
