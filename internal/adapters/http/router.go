package http

import (
	"context"
	"net/http"

	"github.com/dkeye/telemed/internal/adapters/rtc"
	"github.com/dkeye/telemed/internal/adapters/signal"
	"github.com/dkeye/telemed/internal/app/orch"
	"github.com/dkeye/telemed/internal/auth"
	"github.com/dkeye/telemed/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func sessionSecret(cfg *config.Config) []byte {
	if cfg.Secret != "" {
		return []byte(cfg.Secret)
	}
	log.Warn().Str("module", "adapters.http").Msg("secret is empty, sessions will not survive a restart")
	return []byte(uuid.NewString() + uuid.NewString())
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *orch.Orchestrator, verifier auth.TokenVerifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(RateLimitMiddleware(ctx, cfg.RateLimit.HTTPRPS, cfg.RateLimit.HTTPBurst))

	store := cookie.NewStore(sessionSecret(cfg))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAgeHours * 3600,
		HttpOnly: true,
		Secure:   cfg.Mode == "release",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, store))

	h := &handlers{
		ctx:            ctx,
		orch:           orch,
		ws:             signal.NewSignalWSController(orch, signal.OptionsFrom(cfg)),
		verifier:       verifier,
		requireWSToken: cfg.Auth.RequireWSToken,
		corsOrigins:    cfg.CORS.Origins,
		iceServers:     rtc.ICEServers(cfg.WebRTC),
	}

	r.GET("/", h.root)
	r.GET("/ping", h.ping)

	api := r.Group("/api")
	api.GET("/ws/signal", h.signalWS)
	api.GET("/video/ice-servers", h.ice)

	authed := api.Group("", BearerAuth(verifier))
	authed.POST("/session", h.createSession)
	authed.GET("/presence", h.presence)
	authed.POST("/video/signal", h.videoSignal)
	api.DELETE("/session", h.deleteSession)

	log.Info().
		Str("module", "adapters.http").
		Bool("require_ws_token", cfg.Auth.RequireWSToken).
		Strs("cors", cfg.CORS.Origins).
		Msg("router setup")

	return r
}
