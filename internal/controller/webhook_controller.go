package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/event"
	"github.com/rollingbite/checkout/internal/infrastructure/observability"
	redisinfra "github.com/rollingbite/checkout/internal/infrastructure/redis"
)

const maxWebhookBodySize = 1 << 16

// WebhookController receives gateway notifications, verifies their
// signature, stores them in the durable inbox and hands them to the
// reconciler via the webhook stream. Processing never happens inline;
// the endpoint acknowledges as soon as the event is durable.
type WebhookController struct {
	eventRepo     event.Repository
	producer      *redisinfra.StreamProducer
	webhookSecret string
	metrics       *observability.Metrics
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(
	eventRepo event.Repository,
	producer *redisinfra.StreamProducer,
	webhookSecret string,
	metrics *observability.Metrics,
) *WebhookController {
	return &WebhookController{
		eventRepo:     eventRepo,
		producer:      producer,
		webhookSecret: webhookSecret,
		metrics:       metrics,
	}
}

// HandleStripe handles POST /webhooks/stripe
func (h *WebhookController) HandleStripe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	stripeEvent, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.count("unknown", "invalid_signature")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	eventType := string(stripeEvent.Type)
	if !event.Reconcilable(eventType) {
		h.count(eventType, "ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	ev, err := h.toInboxEvent(stripeEvent, body)
	if err != nil {
		h.count(eventType, "malformed")
		http.Error(w, "malformed event payload", http.StatusBadRequest)
		return
	}

	if err := h.eventRepo.Insert(r.Context(), ev); err != nil {
		if errors.Is(err, domainErrors.ErrEventAlreadyProcessed) {
			// Redelivery. The stored row may still be waiting on a lost
			// stream message, so publish again before acknowledging.
			h.count(eventType, "duplicate")
			h.republish(r, stripeEvent.ID, eventType)
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Error().Err(err).Str("event_id", stripeEvent.ID).Msg("failed to store gateway event")
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}

	if err := h.producer.PublishWebhookEvent(r.Context(), ev.GatewayEventID, ev.Type); err != nil {
		// The inbox row is durable; the gateway's retry will republish.
		log.Error().Err(err).Str("event_id", stripeEvent.ID).Msg("failed to publish webhook event")
		http.Error(w, "publish failure", http.StatusInternalServerError)
		return
	}

	h.count(eventType, "accepted")
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookController) republish(r *http.Request, gatewayEventID, eventType string) {
	existing, err := h.eventRepo.GetByGatewayEventID(r.Context(), gatewayEventID)
	if err != nil || existing == nil || existing.ProcessedAt != nil {
		return
	}
	if err := h.producer.PublishWebhookEvent(r.Context(), gatewayEventID, eventType); err != nil {
		log.Warn().Err(err).Str("event_id", gatewayEventID).Msg("failed to republish webhook event")
	}
}

// toInboxEvent extracts the references the reconciler needs from the raw
// gateway payload.
func (h *WebhookController) toInboxEvent(stripeEvent stripe.Event, body []byte) (*event.GatewayEvent, error) {
	ev := &event.GatewayEvent{
		ID:             uuid.New(),
		GatewayEventID: stripeEvent.ID,
		Type:           string(stripeEvent.Type),
		Payload:        body,
		ReceivedAt:     time.Now(),
	}

	switch string(stripeEvent.Type) {
	case event.TypeSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &session); err != nil {
			return nil, err
		}
		ev.SessionID = session.ID
		if session.PaymentIntent != nil {
			ev.PaymentIntentID = session.PaymentIntent.ID
		}
		ev.TransactionID = session.Metadata["transaction_id"]

	case event.TypeIntentSucceeded, event.TypeIntentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(stripeEvent.Data.Raw, &intent); err != nil {
			return nil, err
		}
		ev.PaymentIntentID = intent.ID
		ev.TransactionID = intent.Metadata["transaction_id"]
		if intent.LastPaymentError != nil {
			ev.FailureMessage = intent.LastPaymentError.Msg
		}
	}

	return ev, nil
}

func (h *WebhookController) count(eventType, disposition string) {
	if h.metrics == nil {
		return
	}
	h.metrics.WebhookEventsTotal.WithLabelValues(eventType, disposition).Inc()
}
