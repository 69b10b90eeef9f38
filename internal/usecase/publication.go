package usecase

import (
	"context"
	"time"

	"github.com/vessel-net/vessel"
	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/statement"
)

// PublicationRepository defines storage operations for content and
// publications.
type PublicationRepository interface {
	Create(ctx context.Context, content domain.Content, pub domain.Publication) (domain.Publication, error)
	GetByID(ctx context.Context, id int64) (domain.Publication, error)
	GetByHash(ctx context.Context, contentHash string) (domain.Publication, error)
	List(ctx context.Context, until time.Time, limit int) ([]domain.Publication, error)
	SetSignature(ctx context.Context, id int64, signature []byte) error
	ReplaceContent(ctx context.Context, id int64, content domain.Content) error
}

// EventPublisher pushes state-change events to realtime listeners.
type EventPublisher interface {
	Publish(ctx context.Context, event vessel.Event) error
}

// PublishInput is the validated input for creating a publication.
type PublishInput struct {
	Type     domain.ContentType
	Body     string
	Filename string
	MimeType string
	Size     int64

	// Bytes are the raw content bytes the content hash is computed
	// over: the body for a post, the file bytes for an upload.
	Bytes []byte

	Author string
	Tags   []string

	// Signature, when present, is a StatementOfSource attestation over
	// (contentHash, Author, CreatedAt). CreatedAt then becomes the
	// publication's stored creation time.
	Signature []byte
	CreatedAt time.Time
}

type PublicationUsecase struct {
	repo   PublicationRepository
	signal EventPublisher
}

func NewPublicationUsecase(repo PublicationRepository, signal EventPublisher) *PublicationUsecase {
	return &PublicationUsecase{repo: repo, signal: signal}
}

func (uc *PublicationUsecase) Publish(ctx context.Context, input PublishInput) (domain.Publication, error) {
	if !vessel.IsAddress(input.Author) {
		return domain.Publication{}, domain.ErrInvalidInput
	}
	switch input.Type {
	case domain.ContentTypePost:
		if input.Body == "" {
			return domain.Publication{}, domain.ErrInvalidInput
		}
	case domain.ContentTypeFile:
		if input.Filename == "" || len(input.Bytes) == 0 {
			return domain.Publication{}, domain.ErrInvalidInput
		}
	default:
		return domain.Publication{}, domain.ErrInvalidInput
	}

	raw := input.Bytes
	if input.Type == domain.ContentTypePost {
		raw = []byte(input.Body)
	}
	contentHash := vessel.HashContent(raw)

	pub := domain.Publication{
		ContentHash: contentHash,
		Author:      input.Author,
		Tags:        input.Tags,
	}

	if len(input.Signature) > 0 {
		if input.CreatedAt.IsZero() {
			return domain.Publication{}, domain.ErrInvalidInput
		}
		stmt := statement.StatementOfSource{
			ContentHash: contentHash,
			Publisher:   input.Author,
			CreatedAt:   input.CreatedAt,
		}
		if err := statement.Verify(stmt, input.Signature, input.Author); err != nil {
			return domain.Publication{}, domain.ErrVerification
		}
		pub.Signature = input.Signature
		pub.CDate = input.CreatedAt
	}

	content := domain.Content{
		ContentHash: contentHash,
		Type:        input.Type,
		Body:        input.Body,
		Filename:    input.Filename,
		MimeType:    input.MimeType,
		Size:        input.Size,
	}

	created, err := uc.repo.Create(ctx, content, pub)
	if err != nil {
		return domain.Publication{}, err
	}

	if uc.signal != nil {
		uc.signal.Publish(ctx, vessel.Event{
			Type:      vessel.EventPublicationCreated,
			Subject:   created.ContentHash,
			Timestamp: time.Now().UTC(),
		})
	}

	return created, nil
}

// Sign attaches a StatementOfSource attestation to an unsigned
// publication. The statement is rebuilt from the stored creation time;
// a signature over any other timestamp fails verification, so signing
// after the fact cannot shift the attested moment.
func (uc *PublicationUsecase) Sign(ctx context.Context, id int64, signature []byte) (domain.Publication, error) {
	pub, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Publication{}, err
	}
	if pub.Signed() {
		return domain.Publication{}, domain.ErrImmutable
	}

	stmt := statement.StatementOfSource{
		ContentHash: pub.ContentHash,
		Publisher:   pub.Author,
		CreatedAt:   pub.CDate,
	}
	if err := statement.Verify(stmt, signature, pub.Author); err != nil {
		return domain.Publication{}, domain.ErrVerification
	}

	if err := uc.repo.SetSignature(ctx, id, signature); err != nil {
		return domain.Publication{}, err
	}
	return uc.repo.GetByID(ctx, id)
}

// Edit replaces the content of an unsigned publication. Once a
// signature is present the publication is immutable for everyone,
// including its author.
func (uc *PublicationUsecase) Edit(ctx context.Context, id int64, body string) (domain.Publication, error) {
	if body == "" {
		return domain.Publication{}, domain.ErrInvalidInput
	}

	pub, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Publication{}, err
	}
	if pub.Signed() {
		return domain.Publication{}, domain.ErrImmutable
	}

	content := domain.Content{
		ContentHash: vessel.HashContent([]byte(body)),
		Type:        domain.ContentTypePost,
		Body:        body,
	}
	if err := uc.repo.ReplaceContent(ctx, id, content); err != nil {
		return domain.Publication{}, err
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *PublicationUsecase) Get(ctx context.Context, id int64) (domain.Publication, error) {
	return uc.repo.GetByID(ctx, id)
}

// Resolve maps a permalink's content hash to its publication.
func (uc *PublicationUsecase) Resolve(ctx context.Context, contentHash string) (domain.Publication, error) {
	if !vessel.IsContentHash(contentHash) {
		return domain.Publication{}, domain.ErrInvalidInput
	}
	return uc.repo.GetByHash(ctx, contentHash)
}

func (uc *PublicationUsecase) Feed(ctx context.Context, until time.Time, limit int) ([]domain.Publication, error) {
	if until.IsZero() {
		until = time.Now().UTC()
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.repo.List(ctx, until, limit)
}
