package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/token"
)

var tracer = otel.Tracer("auth")

const defaultSessionWindow = 24 * time.Hour

type AuthService struct {
	config domain.Config
	tokens *token.Manager
}

func NewAuthService(config domain.Config, tokens *token.Manager) *AuthService {
	return &AuthService{
		config: config,
		tokens: tokens,
	}
}

type SessionResult struct {
	Subject   string
	ExpiresIn time.Duration
}

// SessionFromToken exchanges a redeemed confirmation token for a
// session credential. The session expiry is derived from the token's
// own embedded expiry, falling back to the default window when the
// token carries none.
func (s *AuthService) SessionFromToken(ctx context.Context, tokenString string) (string, time.Duration, error) {
	_, span := tracer.Start(ctx, "Auth.Service.SessionFromToken")
	defer span.End()

	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		span.RecordError(errors.Wrap(err, "token validation failed"))
		return "", 0, domain.ErrVerification
	}

	ttl := claims.ExpiresIn(defaultSessionWindow)
	if ttl <= 0 {
		ttl = defaultSessionWindow
	}

	session, err := s.tokens.IssueSession(claims.Subject, ttl)
	if err != nil {
		span.RecordError(err)
		return "", 0, err
	}
	return session, ttl, nil
}

// AuthSession validates the session cookie value. Callers only ever
// learn the subject; the raw token never flows back to client code.
func (s *AuthService) AuthSession(ctx context.Context, tokenString string) (*SessionResult, error) {
	_, span := tracer.Start(ctx, "Auth.Service.AuthSession")
	defer span.End()

	claims, err := s.tokens.ValidateSession(tokenString)
	if err != nil {
		span.RecordError(errors.Wrap(err, "session validation failed"))
		return nil, domain.ErrVerification
	}

	return &SessionResult{
		Subject:   claims.Subject,
		ExpiresIn: claims.ExpiresIn(defaultSessionWindow),
	}, nil
}
