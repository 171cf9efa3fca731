package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const ContextPrincipal = "principal"

// Resolver turns a credential into the caller's identity.
type Resolver interface {
	ResolveToken(ctx context.Context, token string) (model.Principal, error)
	ResolveSession(ctx context.Context, id string) (model.Principal, error)
}

type AuthMiddleware struct {
	resolver   Resolver
	cookieName string
}

func NewAuthMiddleware(resolver Resolver, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, cookieName: cookieName}
}

// Authenticate attaches the principal from a bearer token or a session
// cookie, bearer first. Requests without credentials pass through
// anonymous; a malformed header is 401 and a token that fails
// verification is 403.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				handler.RespondError(c, apperrors.Unauthorized("invalid authorization format", nil))
				return
			}
			p, err := m.resolver.ResolveToken(c.Request.Context(), strings.TrimSpace(token))
			if err != nil {
				handler.RespondError(c, err)
				return
			}
			c.Set(ContextPrincipal, p)
			c.Next()
			return
		}

		if id, err := c.Cookie(m.cookieName); err == nil && id != "" {
			p, err := m.resolver.ResolveSession(c.Request.Context(), id)
			switch {
			case err == nil:
				c.Set(ContextPrincipal, p)
			case apperrors.Is(err, apperrors.ErrUnauthorized):
				// Stale cookie: drop it and carry on anonymous.
				c.SetCookie(m.cookieName, "", -1, "/", "", false, true)
			default:
				handler.RespondError(c, err)
				return
			}
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests. Browsers are sent to the login
// page, API clients get 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Principal(c); ok {
			c.Next()
			return
		}
		rejectAnonymous(c)
	}
}

func rejectAnonymous(c *gin.Context) {
	const msg = "Please log in to continue"
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, "/login.html?message="+url.QueryEscape(msg))
		c.Abort()
		return
	}
	handler.RespondError(c, apperrors.Unauthorized("authentication required", nil))
}

// RequireRole allows only the listed roles. It implies RequireAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			rejectAnonymous(c)
			return
		}
		if !p.Is(roles...) {
			handler.RespondError(c, apperrors.Forbidden("insufficient role"))
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated caller, if any.
func Principal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

// MustPrincipal is Principal for routes behind RequireAuth.
func MustPrincipal(c *gin.Context) model.Principal {
	p, _ := Principal(c)
	return p
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
