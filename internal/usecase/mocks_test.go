package usecase

import (
	"context"
	"time"

	"github.com/vessel-net/vessel"
	"github.com/vessel-net/vessel/internal/domain"
)

// --- shared mocks ---

type mockPublicationRepo struct {
	pubs   map[int64]domain.Publication
	nextID int64
}

func newMockPublicationRepo() *mockPublicationRepo {
	return &mockPublicationRepo{pubs: map[int64]domain.Publication{}}
}

func (m *mockPublicationRepo) Create(ctx context.Context, content domain.Content, pub domain.Publication) (domain.Publication, error) {
	m.nextID++
	pub.ID = m.nextID
	pub.Content = content
	if pub.CDate.IsZero() {
		pub.CDate = time.Now().UTC().Truncate(time.Second)
	}
	m.pubs[pub.ID] = pub
	return pub, nil
}

func (m *mockPublicationRepo) GetByID(ctx context.Context, id int64) (domain.Publication, error) {
	pub, ok := m.pubs[id]
	if !ok {
		return domain.Publication{}, domain.NotFoundError{Resource: "publication"}
	}
	return pub, nil
}

func (m *mockPublicationRepo) GetByHash(ctx context.Context, contentHash string) (domain.Publication, error) {
	for _, pub := range m.pubs {
		if pub.ContentHash == contentHash {
			return pub, nil
		}
	}
	return domain.Publication{}, domain.NotFoundError{Resource: "publication"}
}

func (m *mockPublicationRepo) List(ctx context.Context, until time.Time, limit int) ([]domain.Publication, error) {
	var out []domain.Publication
	for _, pub := range m.pubs {
		out = append(out, pub)
	}
	return out, nil
}

func (m *mockPublicationRepo) SetSignature(ctx context.Context, id int64, signature []byte) error {
	pub, ok := m.pubs[id]
	if !ok {
		return domain.NotFoundError{Resource: "publication"}
	}
	if pub.Signed() {
		return domain.ErrImmutable
	}
	pub.Signature = signature
	m.pubs[id] = pub
	return nil
}

func (m *mockPublicationRepo) ReplaceContent(ctx context.Context, id int64, content domain.Content) error {
	pub, ok := m.pubs[id]
	if !ok {
		return domain.NotFoundError{Resource: "publication"}
	}
	if pub.Signed() {
		return domain.ErrImmutable
	}
	pub.ContentHash = content.ContentHash
	pub.Content = content
	m.pubs[id] = pub
	return nil
}

type mockCommentRepo struct {
	comments map[int64]domain.Comment
	nextID   int64
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: map[int64]domain.Comment{}}
}

func (m *mockCommentRepo) Create(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	m.nextID++
	c.ID = m.nextID
	c.CDate = time.Now().UTC()
	m.comments[c.ID] = c
	return c, nil
}

func (m *mockCommentRepo) Get(ctx context.Context, id int64) (domain.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return domain.Comment{}, domain.NotFoundError{Resource: "comment"}
	}
	return c, nil
}

func (m *mockCommentRepo) Transition(ctx context.Context, id int64, to domain.CommentStatus, credential []byte) (bool, error) {
	c, ok := m.comments[id]
	if !ok || c.Status != domain.CommentPending {
		return false, nil
	}
	c.Status = to
	if credential != nil {
		c.Credential = credential
	}
	m.comments[id] = c
	return true, nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.comments[id]; !ok {
		return domain.NotFoundError{Resource: "comment"}
	}
	delete(m.comments, id)
	return nil
}

func (m *mockCommentRepo) ListConfirmed(ctx context.Context, publicationID int64) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range m.comments {
		if c.PublicationID == publicationID && c.Status == domain.CommentConfirmed {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCommentRepo) CountConfirmed(ctx context.Context, publicationID int64) (int64, error) {
	list, _ := m.ListConfirmed(ctx, publicationID)
	return int64(len(list)), nil
}

type mockMailer struct {
	to            string
	confirmTokens []string
	destroyTokens []string
}

func (m *mockMailer) SendConfirmation(ctx context.Context, to, name, confirmToken, destroyToken string) error {
	m.to = to
	m.confirmTokens = append(m.confirmTokens, confirmToken)
	m.destroyTokens = append(m.destroyTokens, destroyToken)
	return nil
}

type mockSignal struct {
	events []vessel.Event
}

func (m *mockSignal) Publish(ctx context.Context, event vessel.Event) error {
	m.events = append(m.events, event)
	return nil
}
