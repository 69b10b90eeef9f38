package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vessel-net/vessel"
	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/statement"
	"github.com/vessel-net/vessel/token"
)

// CommentRepository defines storage operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, c domain.Comment) (domain.Comment, error)
	Get(ctx context.Context, id int64) (domain.Comment, error)
	Transition(ctx context.Context, id int64, to domain.CommentStatus, credential []byte) (bool, error)
	Delete(ctx context.Context, id int64) error
	ListConfirmed(ctx context.Context, publicationID int64) ([]domain.Comment, error)
	CountConfirmed(ctx context.Context, publicationID int64) (int64, error)
}

// TokenService issues and validates confirmation tokens.
type TokenService interface {
	IssueConfirm(commentID int64) (string, error)
	IssueDestroy(commentID int64) (string, error)
	Validate(tokenString string) (*token.Claims, error)
}

// Mailer dispatches the confirmation mail. Transport is out of scope;
// implementations only receive the rendered token pair.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, name, confirmToken, destroyToken string) error
}

// SubmitCommentInput is the uniform submission shape for both channels.
type SubmitCommentInput struct {
	PublicationID int64
	Body          string
	AuthorName    string
	AuthorID      string
	Auth          domain.CommentAuth

	// Timestamp is the commenter's declared signing time, bound into
	// the CommentSignature statement on the wallet channel.
	Timestamp time.Time
}

type CommentUsecase struct {
	repo   CommentRepository
	pubs   PublicationRepository
	tokens TokenService
	mailer Mailer
	signal EventPublisher
	config domain.Config
}

func NewCommentUsecase(
	repo CommentRepository,
	pubs PublicationRepository,
	tokens TokenService,
	mailer Mailer,
	signal EventPublisher,
	config domain.Config,
) *CommentUsecase {
	return &CommentUsecase{
		repo:   repo,
		pubs:   pubs,
		tokens: tokens,
		mailer: mailer,
		signal: signal,
		config: config,
	}
}

func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1
}

// Submit runs the dual-channel comment protocol. The wallet channel
// verifies inline and lands CONFIRMED or not at all; the email channel
// lands PENDING and waits for its token. Both produce the same entity
// shape, so everything downstream treats them identically.
func (uc *CommentUsecase) Submit(ctx context.Context, input SubmitCommentInput) (domain.Comment, error) {
	if input.Body == "" || input.AuthorID == "" || input.Auth == nil {
		return domain.Comment{}, domain.ErrInvalidInput
	}

	pub, err := uc.pubs.GetByID(ctx, input.PublicationID)
	if err != nil {
		return domain.Comment{}, err
	}

	switch auth := input.Auth.(type) {
	case domain.AuthEthereum:
		if !vessel.IsAddress(input.AuthorID) {
			return domain.Comment{}, domain.ErrInvalidInput
		}

		// Rebuild the statement from the comment's actual parent so a
		// signature valid for one publication can never be replayed on
		// another.
		stmt := statement.CommentSignature{
			Node:          uc.config.Address,
			Commenter:     input.AuthorID,
			PublicationID: pub.ID,
			BodyHash:      vessel.HashContent([]byte(input.Body)),
			Timestamp:     input.Timestamp,
		}
		if err := statement.Verify(stmt, auth.Signature, input.AuthorID); err != nil {
			// Submission itself is rejected; no row is created.
			return domain.Comment{}, domain.ErrVerification
		}

		created, err := uc.repo.Create(ctx, domain.Comment{
			PublicationID: pub.ID,
			Body:          input.Body,
			Status:        domain.CommentConfirmed,
			AuthType:      domain.AuthTypeEthereum,
			AuthorName:    input.AuthorName,
			AuthorID:      input.AuthorID,
			Credential:    auth.Signature,
		})
		if err != nil {
			return domain.Comment{}, err
		}
		uc.notify(ctx, vessel.EventCommentConfirmed, created)
		return created, nil

	case domain.AuthEmail:
		if !looksLikeEmail(input.AuthorID) || vessel.IsAddress(input.AuthorID) {
			return domain.Comment{}, domain.ErrInvalidInput
		}

		created, err := uc.repo.Create(ctx, domain.Comment{
			PublicationID: pub.ID,
			Body:          input.Body,
			Status:        domain.CommentPending,
			AuthType:      domain.AuthTypeEmail,
			AuthorName:    input.AuthorName,
			AuthorID:      input.AuthorID,
		})
		if err != nil {
			return domain.Comment{}, err
		}

		confirmToken, err := uc.tokens.IssueConfirm(created.ID)
		if err != nil {
			return domain.Comment{}, err
		}
		destroyToken, err := uc.tokens.IssueDestroy(created.ID)
		if err != nil {
			return domain.Comment{}, err
		}
		if err := uc.mailer.SendConfirmation(ctx, created.AuthorID, created.AuthorName, confirmToken, destroyToken); err != nil {
			// The comment stays PENDING; dispatch can be retried.
			return created, err
		}
		return created, nil

	default:
		return domain.Comment{}, domain.ErrInvalidInput
	}
}

// Redeem consumes a confirmation token presented at the verification
// endpoint. Every failure surfaces as the uniform verification error;
// callers must not distinguish which check failed.
func (uc *CommentUsecase) Redeem(ctx context.Context, tokenString string) (domain.Comment, error) {
	claims, err := uc.tokens.Validate(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) && claims != nil {
			// Move a still-pending subject into the visible EXPIRED
			// state instead of leaving it dangling. Best effort: a
			// comment that is already terminal or gone stays put, and
			// the redeem fails the same way regardless.
			if id, idErr := claims.CommentID(); idErr == nil {
				_, _ = uc.repo.Transition(ctx, id, domain.CommentExpired, nil)
			}
		}
		return domain.Comment{}, domain.ErrVerification
	}

	id, err := claims.CommentID()
	if err != nil {
		return domain.Comment{}, domain.ErrVerification
	}

	switch claims.Action {
	case token.ActionConfirm:
		return uc.confirm(ctx, id, tokenString)
	case token.ActionDestroy:
		return uc.destroy(ctx, id)
	default:
		// Validate already rejects unknown actions; fail closed anyway.
		return domain.Comment{}, domain.ErrVerification
	}
}

func (uc *CommentUsecase) confirm(ctx context.Context, id int64, tokenString string) (domain.Comment, error) {
	comment, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.Comment{}, domain.ErrVerification
	}

	switch comment.Status {
	case domain.CommentConfirmed:
		// Second presentation of the same token: no-op success, so a
		// prefetching mail client cannot cause a duplicate transition.
		return comment, nil
	case domain.CommentPending:
		// The token itself is the credential on the email channel.
		ok, err := uc.repo.Transition(ctx, id, domain.CommentConfirmed, []byte(tokenString))
		if err != nil {
			return domain.Comment{}, err
		}
		if !ok {
			// Lost a race with a concurrent redeem; report whatever won.
			comment, err = uc.repo.Get(ctx, id)
			if err != nil || comment.Status != domain.CommentConfirmed {
				return domain.Comment{}, domain.ErrVerification
			}
			return comment, nil
		}
		comment, err = uc.repo.Get(ctx, id)
		if err != nil {
			return domain.Comment{}, err
		}
		uc.notify(ctx, vessel.EventCommentConfirmed, comment)
		return comment, nil
	default:
		return domain.Comment{}, domain.ErrVerification
	}
}

func (uc *CommentUsecase) destroy(ctx context.Context, id int64) (domain.Comment, error) {
	comment, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.Comment{}, domain.ErrVerification
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return domain.Comment{}, domain.ErrVerification
	}
	uc.notify(ctx, vessel.EventCommentDeleted, comment)
	return comment, nil
}

// DeleteSigned removes a comment on the wallet channel. The requester
// must be the original commenter or the hosting node, and must present
// a DeleteComment attestation bound to this node and this comment.
func (uc *CommentUsecase) DeleteSigned(ctx context.Context, id int64, requester string, signature []byte) error {
	comment, err := uc.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	isCommenter := comment.AuthType == domain.AuthTypeEthereum && vessel.AddressesEqual(requester, comment.AuthorID)
	isNodeOwner := vessel.AddressesEqual(requester, uc.config.Address)
	if !isCommenter && !isNodeOwner {
		return domain.ErrVerification
	}

	stmt := statement.DeleteComment{
		Node:      uc.config.Address,
		CommentID: comment.ID,
		Commenter: requester,
	}
	if err := statement.Verify(stmt, signature, requester); err != nil {
		return domain.ErrVerification
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.notify(ctx, vessel.EventCommentDeleted, comment)
	return nil
}

func (uc *CommentUsecase) ListConfirmed(ctx context.Context, publicationID int64) ([]domain.Comment, error) {
	return uc.repo.ListConfirmed(ctx, publicationID)
}

func (uc *CommentUsecase) CountConfirmed(ctx context.Context, publicationID int64) (int64, error) {
	return uc.repo.CountConfirmed(ctx, publicationID)
}

func (uc *CommentUsecase) notify(ctx context.Context, eventType string, comment domain.Comment) {
	if uc.signal == nil {
		return
	}
	uc.signal.Publish(ctx, vessel.Event{
		Type:      eventType,
		Subject:   comment.AuthorID,
		Timestamp: time.Now().UTC(),
		Body:      comment,
	})
}
