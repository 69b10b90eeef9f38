// Package token issues and validates the self-describing bearer tokens
// that drive the email confirmation channel. A token's validity derives
// entirely from its signature and embedded expiry; there is no
// server-side token table, and therefore no way to revoke an issued but
// unused token before it expires.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ActionConfirm = "confirm"
	ActionDestroy = "destroy"
	ActionSession = "session"
)

const DefaultTTL = 72 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims embeds the registered JWT claims plus the action discriminator.
type Claims struct {
	jwt.RegisteredClaims
	Action string `json:"act"`
}

// CommentID parses the token subject as a comment ID.
func (c *Claims) CommentID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// ExpiresIn returns the remaining lifetime, or fallback when the token
// carries no expiry.
func (c *Claims) ExpiresIn(fallback time.Duration) time.Duration {
	if c.ExpiresAt == nil {
		return fallback
	}
	return time.Until(c.ExpiresAt.Time)
}

type Manager struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

// NewManager builds a token manager. A zero ttl selects DefaultTTL; a
// negative ttl issues tokens that are already expired.
func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secretKey: []byte(secret),
		issuer:    issuer,
		ttl:       ttl,
	}
}

func (m *Manager) issue(action, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Action: action,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// IssueConfirm creates a single-purpose token that confirms the given
// comment.
func (m *Manager) IssueConfirm(commentID int64) (string, error) {
	return m.issue(ActionConfirm, strconv.FormatInt(commentID, 10), m.ttl)
}

// IssueDestroy creates the companion token that lets the commenter
// retract the comment without re-authenticating.
func (m *Manager) IssueDestroy(commentID int64) (string, error) {
	return m.issue(ActionDestroy, strconv.FormatInt(commentID, 10), m.ttl)
}

// IssueSession creates a session token for the HTTP-only cookie.
func (m *Manager) IssueSession(subject string, ttl time.Duration) (string, error) {
	return m.issue(ActionSession, subject, ttl)
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Surface the claims so callers can move the subject into a
			// visible expired state. The error still rejects the token.
			if parsed != nil {
				if claims, ok := parsed.Claims.(*Claims); ok && (m.issuer == "" || claims.Issuer == m.issuer) {
					return claims, ErrExpiredToken
				}
			}
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Validate checks signature, expiry and issuer, and requires the action
// to be one of the confirmation actions. The action discriminator is
// validated before any caller branches on it; an unrecognized action is
// an error, not a no-op. On ErrExpiredToken the claims travel with the
// error so callers can move the subject into a visible expired state.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return claims, err
	}
	switch claims.Action {
	case ActionConfirm, ActionDestroy:
		return claims, nil
	default:
		return nil, ErrInvalidToken
	}
}

// ValidateSession accepts only session tokens.
func (m *Manager) ValidateSession(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Action != ActionSession {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
