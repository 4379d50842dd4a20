package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

// Identity headers set by the upstream gateway after authentication.
// This service never sees credentials, only the resolved identity.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"

	actorContextKey = "actor"

	RoleBorrower = "borrower"
	RoleAdmin    = "admin"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

type Actor struct {
	ID   string
	Role string
}

// CanManageLoans is the capability behind the admin surface. Role is an
// explicit attribute, not something inferred from the user's email.
func (a Actor) CanManageLoans() bool { return a.Role == RoleAdmin }

// Identity requires a well-formed X-User-Id on every request and stashes
// the actor in the request context.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderUserID})
			}
			if !reHex32.MatchString(userID) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid " + HeaderUserID})
			}
			role := strings.TrimSpace(c.Request().Header.Get(HeaderUserRole))
			if role == "" {
				role = RoleBorrower
			}
			c.Set(actorContextKey, Actor{ID: userID, Role: role})
			return next(c)
		}
	}
}

// RequireAdmin gates the administrative routes. Runs after Identity.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok || !actor.CanManageLoans() {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "admin privileges required"})
			}
			return next(c)
		}
	}
}

func ActorFrom(c echo.Context) (Actor, bool) {
	a, ok := c.Get(actorContextKey).(Actor)
	return a, ok
}
