package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/reloop-app/reloop-backend/internal/api/http/respond"
	"github.com/reloop-app/reloop-backend/internal/logging"
	"github.com/reloop-app/reloop-backend/internal/users"
	"github.com/reloop-app/reloop-backend/internal/webhooks"
)

const maxPayloadBytes = 1 << 20

// Verifier checks a delivery's signature headers against its raw payload.
type Verifier interface {
	Verify(payload []byte, headers http.Header) error
}

type EventService interface {
	UserCreated(ctx context.Context, evt *webhooks.Event) (*users.User, error)
	UserUpdated(ctx context.Context, evt *webhooks.Event) (*users.User, error)
	UserDeleted(ctx context.Context, evt *webhooks.Event) error
}

type Handler struct {
	svc     EventService
	dedupe  webhooks.Deduper
	created Verifier
	updated Verifier
	deleted Verifier
}

func New(svc EventService, dedupe webhooks.Deduper, secrets webhooks.Secrets) (*Handler, error) {
	h := &Handler{svc: svc, dedupe: dedupe}
	if h.dedupe == nil {
		h.dedupe = webhooks.NoopDeduper{}
	}

	var err error
	if h.created, err = newVerifier(secrets.UserCreated); err != nil {
		return nil, fmt.Errorf("user created secret: %w", err)
	}
	if h.updated, err = newVerifier(secrets.UserUpdated); err != nil {
		return nil, fmt.Errorf("user updated secret: %w", err)
	}
	if h.deleted, err = newVerifier(secrets.UserDeleted); err != nil {
		return nil, fmt.Errorf("user deleted secret: %w", err)
	}
	return h, nil
}

func newVerifier(secret string) (Verifier, error) {
	if secret == "" {
		return nil, nil
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return wh, nil
}

func (h *Handler) SignUp(c *gin.Context) {
	h.process(c, h.created, "User created successfully", func(ctx context.Context, evt *webhooks.Event) error {
		_, err := h.svc.UserCreated(ctx, evt)
		return err
	})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	h.process(c, h.updated, "User updated successfully", func(ctx context.Context, evt *webhooks.Event) error {
		_, err := h.svc.UserUpdated(ctx, evt)
		return err
	})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	h.process(c, h.deleted, "User deleted successfully", h.svc.UserDeleted)
}

// process verifies the delivery, claims its id, decodes the event and applies
// it. A failed delivery releases its claim so the provider can retry.
func (h *Handler) process(c *gin.Context, v Verifier, okMessage string, apply func(context.Context, *webhooks.Event) error) {
	ctx := c.Request.Context()
	log := logging.FromContext(ctx)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		respond.BadJSON(c)
		return
	}

	if err := verify(v, payload, c.Request.Header); err != nil {
		log.Warn("webhook rejected", "route", c.FullPath(), "error", err)
		respond.Fail(c, http.StatusNotFound, "Webhook verification failed")
		return
	}

	deliveryID := c.GetHeader("svix-id")
	log = log.With("delivery_id", deliveryID)
	ctx = logging.WithLogger(ctx, log)

	claimed, err := h.dedupe.Claim(ctx, deliveryID)
	if err != nil {
		log.Warn("delivery dedupe unavailable, processing anyway", "error", err)
		claimed = true
	}
	if !claimed {
		log.Info("duplicate delivery ignored")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event already processed"})
		return
	}

	var evt webhooks.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		h.release(ctx, deliveryID)
		respond.BadJSON(c)
		return
	}

	if err := apply(ctx, &evt); err != nil {
		h.release(ctx, deliveryID)
		switch {
		case errors.Is(err, webhooks.ErrMissingEmail),
			errors.Is(err, webhooks.ErrMissingUserID),
			errors.Is(err, webhooks.ErrUnexpectedEvent):
			respond.Fail(c, http.StatusBadRequest, err.Error())
		default:
			respond.Internal(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": okMessage})
}

func verify(v Verifier, payload []byte, headers http.Header) error {
	if v == nil {
		return webhooks.ErrEndpointDisabled
	}
	if err := v.Verify(payload, headers); err != nil {
		return fmt.Errorf("%w: %v", webhooks.ErrVerification, err)
	}
	return nil
}

func (h *Handler) release(ctx context.Context, id string) {
	if err := h.dedupe.Release(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("release delivery claim", "error", err)
	}
}
