package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth   *service.AuthService
	config domain.Config
}

func NewAuthMiddleware(
	auth *service.AuthService,
	config domain.Config,
) *AuthMiddleware {
	return &AuthMiddleware{
		auth:   auth,
		config: config,
	}
}

// IdentifySession resolves the session cookie, if any, into the session
// subject. The subject is the only thing that ever enters the request
// context; the cookie value itself stays at this boundary.
func (s *AuthMiddleware) IdentifySession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifySession")
		defer span.End()

		cookie, err := c.Cookie(domain.SessionCookieName)
		if err == nil && cookie.Value != "" {
			result, err := s.auth.AuthSession(ctx, cookie.Value)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifySession: s.auth.AuthSession failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.SessionSubjectCtxKey, result.Subject)
			span.SetAttributes(attribute.String("SessionSubject", result.Subject))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
