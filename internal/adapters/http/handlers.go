package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/dkeye/telemed/internal/adapters/signal"
	"github.com/dkeye/telemed/internal/app"
	"github.com/dkeye/telemed/internal/app/call"
	"github.com/dkeye/telemed/internal/app/orch"
	"github.com/dkeye/telemed/internal/auth"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type VideoSignalRequest struct {
	ToUserID domain.UserID   `json:"toUserId" binding:"required"`
	Payload  json.RawMessage `json:"payload" binding:"required"`
}

type VideoSignalResponse struct {
	OK        bool `json:"ok"`
	Delivered bool `json:"delivered"`
}

type PresenceResponse struct {
	Online []domain.UserID `json:"online"`
}

type handlers struct {
	ctx            context.Context
	orch           *orch.Orchestrator
	ws             *signal.SignalWSController
	verifier       auth.TokenVerifier
	requireWSToken bool
	corsOrigins    []string
	iceServers     []webrtc.ICEServer
}

func (h *handlers) root(c *gin.Context) {
	c.String(http.StatusOK, "API is running")
}

func (h *handlers) ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// createSession remembers the bearer's subject in the cookie session so a
// browser can open the WebSocket without a token in the URL.
func (h *handlers) createSession(c *gin.Context) {
	claims := claimsFrom(c)
	session := sessions.Default(c)
	session.Set(sessionPrincipal, claims.Subject)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not saved"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": claims.Subject, "role": claims.Role})
}

func (h *handlers) deleteSession(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session clear")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not cleared"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) signalWS(c *gin.Context) {
	principal, source, err := wsPrincipal(c, h.verifier)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("ws token rejected")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if source == sourceSession && !sessionOriginAllowed(c.Request, h.corsOrigins) {
		log.Warn().
			Err(errForeignOrigin).
			Str("module", "adapters.http").
			Str("origin", c.GetHeader("Origin")).
			Str("principal", string(principal)).
			Msg("ws session handshake refused")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errForeignOrigin.Error()})
		return
	}
	if principal == "" && h.requireWSToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}
	h.ws.HandleSignal(h.ctx, c, principal)
}

// videoSignal is the HTTP fallback for the generic signal kind. The sender
// is the token subject.
func (h *handlers) videoSignal(c *gin.Context) {
	var req VideoSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid toUserId/payload"})
		return
	}
	if !isJSONObject(req.Payload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must be an object"})
		return
	}

	from := domain.UserID(claimsFrom(c).Subject)
	out, err := h.orch.SignalFrom(from, req.ToUserID, req.Payload)
	if err != nil {
		var merr *app.MalformedError
		switch {
		case errors.As(err, &merr):
			c.JSON(http.StatusBadRequest, gin.H{"error": merr.Error()})
		case errors.Is(err, call.ErrOutOfOrder):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "relay failed"})
		}
		return
	}
	c.JSON(http.StatusOK, VideoSignalResponse{OK: true, Delivered: out == app.Delivered})
}

func isJSONObject(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) > 0 && v[0] == '{'
}

func (h *handlers) presence(c *gin.Context) {
	online := h.orch.Registry.Online()
	slices.Sort(online)
	if online == nil {
		online = []domain.UserID{}
	}
	c.JSON(http.StatusOK, PresenceResponse{Online: online})
}

func (h *handlers) ice(c *gin.Context) {
	c.JSON(http.StatusOK, h.iceServers)
}
