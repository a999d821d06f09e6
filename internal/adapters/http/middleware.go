package http

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dkeye/telemed/internal/auth"
	"github.com/dkeye/telemed/internal/config"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	claimsKey          = "claims"
	sessionPrincipal   = "principal"
	sessionCookieName  = "TelemedSession"
	bearerPrefix       = "Bearer "
	tokenQueryParam    = "token"
	sessionMaxAgeHours = 12
)

var errNoToken = errors.New("missing bearer token")

// CORSMiddleware allows the configured origins. "*" reflects any origin so
// credentialed requests keep working.
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.Origins) == 0 || slices.Contains(cfg.Origins, "*") {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = cfg.Origins
	}
	return cors.New(c)
}

func bearerToken(c *gin.Context) (string, error) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", errNoToken
	}
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", auth.ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}

// BearerAuth rejects requests without a valid access token and stores the
// claims for the handlers.
func BearerAuth(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(auth.Claims)
	return claims
}

// principalSource says where a WebSocket principal came from.
type principalSource int

const (
	sourceNone principalSource = iota
	sourceToken
	sourceSession
)

var errForeignOrigin = errors.New("origin not allowed for session credentials")

// wsPrincipal resolves who opens a WebSocket: Authorization header, then
// ?token=, then the cookie session. A token that is present but invalid is
// an error; no credentials at all yields an empty principal.
func wsPrincipal(c *gin.Context, verifier auth.TokenVerifier) (domain.UserID, principalSource, error) {
	token, err := bearerToken(c)
	if errors.Is(err, errNoToken) {
		token = c.Query(tokenQueryParam)
	} else if err != nil {
		return "", sourceNone, err
	}
	if token != "" {
		claims, err := verifier.Verify(token)
		if err != nil {
			return "", sourceNone, err
		}
		return domain.UserID(claims.Subject), sourceToken, nil
	}
	if sub, ok := sessions.Default(c).Get(sessionPrincipal).(string); ok && sub != "" {
		return domain.UserID(sub), sourceSession, nil
	}
	return "", sourceNone, nil
}

// sessionOriginAllowed guards cookie-authenticated handshakes. The Origin
// must be the serving host or listed explicitly in cors.origins; "*" does
// not count. Requests without Origin are not from a browser page.
func sessionOriginAllowed(r *http.Request, origins []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, o := range origins {
		if o != "*" && strings.EqualFold(strings.TrimSuffix(o, "/"), origin) {
			return true
		}
	}
	return false
}
