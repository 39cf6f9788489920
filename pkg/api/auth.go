package api

import (
	"strings"

	echo "github.com/labstack/echo/v5"
)

// anonymousUserID is the fallback identity used when no bearer token is
// presented, per spec.md §6: "absence of a token falls back to an
// anonymous/default user" rather than rejecting the request.
const anonymousUserID = "anonymous"

// extractUserID reads the bearer token from the Authorization header and
// passes it through opaquely as the record store's row-level auth
// identity, per spec.md §6's bearer-token pass-through. Grounded on the
// teacher's extractAuthor header-extraction shape, generalized from
// oauth2-proxy headers to a raw bearer token.
func extractUserID(c *echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(header, prefix)); token != "" {
			return token
		}
	}
	return anonymousUserID
}
