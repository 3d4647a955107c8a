package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/dto"
	"github.com/noah-isme/rackbook-api/internal/models"
	"github.com/noah-isme/rackbook-api/internal/service"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
	"github.com/noah-isme/rackbook-api/pkg/response"
)

type kioskStateAPI interface {
	State(ctx context.Context, now time.Time) (*models.KioskState, error)
}

type kioskSubscriber interface {
	Register() (uint64, <-chan service.KioskEvent)
	Unregister(id uint64)
}

type kioskTokenSigner interface {
	Generate(kioskID string) (string, time.Time, error)
	Parse(token string) (string, time.Time, error)
}

// KioskStreamConfig bounds a single dashboard connection.
type KioskStreamConfig struct {
	MaxLifetime time.Duration
	Heartbeat   time.Duration
}

// KioskHandler serves the wall-screen dashboard: a snapshot endpoint and a server-sent event stream.
type KioskHandler struct {
	kiosk  kioskStateAPI
	hub    kioskSubscriber
	tokens kioskTokenSigner
	cfg    KioskStreamConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewKioskHandler constructs the handler.
func NewKioskHandler(kiosk kioskStateAPI, hub kioskSubscriber, tokens kioskTokenSigner, cfg KioskStreamConfig, logger *zap.Logger) *KioskHandler {
	if cfg.MaxLifetime <= 0 {
		cfg.MaxLifetime = time.Hour
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 25 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KioskHandler{kiosk: kiosk, hub: hub, tokens: tokens, cfg: cfg, logger: logger, now: time.Now}
}

// State godoc
// @Summary Current and next slot per pool with current allocations
// @Tags Kiosk
// @Produce json
// @Param now query string false "Override clock (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /kiosk/state [get]
func (h *KioskHandler) State(c *gin.Context) {
	now := h.now()
	if raw := c.Query("now"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "now must be RFC3339"))
			return
		}
		now = parsed
	}
	state, err := h.kiosk.State(c.Request.Context(), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// IssueToken godoc
// @Summary Issue a signed token for a kiosk screen
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.KioskTokenRequest true "Kiosk"
// @Success 201 {object} response.Envelope
// @Router /admin/kiosk/tokens [post]
func (h *KioskHandler) IssueToken(c *gin.Context) {
	var req dto.KioskTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.KioskID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kioskId required"))
		return
	}
	token, expiresAt, err := h.tokens.Generate(req.KioskID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue kiosk token"))
		return
	}
	response.Created(c, dto.KioskTokenResponse{Token: token, ExpiresAt: expiresAt.Format(time.RFC3339)})
}

// Stream godoc
// @Summary Live dashboard stream (server-sent events)
// @Description Emits an init snapshot, then update events after approvals, decisions and sync changes.
// @Tags Kiosk
// @Produce text/event-stream
// @Param token path string true "Kiosk token"
// @Success 200 {string} string "event stream"
// @Failure 401 {object} response.Envelope
// @Router /kiosk/stream/{token} [get]
func (h *KioskHandler) Stream(c *gin.Context) {
	kioskID, expiresAt, err := h.tokens.Parse(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid kiosk token"))
		return
	}
	ctx := c.Request.Context()
	state, err := h.kiosk.State(ctx, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	id, events := h.hub.Register()
	defer h.hub.Unregister(id)

	lifetime := h.cfg.MaxLifetime
	if untilExpiry := expiresAt.Sub(h.now()); untilExpiry < lifetime {
		lifetime = untilExpiry
	}
	deadline := time.NewTimer(lifetime)
	defer deadline.Stop()
	heartbeat := time.NewTicker(h.cfg.Heartbeat)
	defer heartbeat.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	h.logger.Info("kiosk connected", zap.String("kiosk_id", kioskID), zap.Uint64("subscriber", id))
	c.SSEvent(string(service.KioskEventInit), state)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev.Payload)
			return true
		case <-heartbeat.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		}
	})
	h.logger.Info("kiosk disconnected", zap.String("kiosk_id", kioskID), zap.Uint64("subscriber", id))
}
