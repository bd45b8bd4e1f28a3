package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway implements Gateway against the Stripe API. The client is
// owned by this struct; construct one per process in bootstrap and inject it.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a StripeGateway with its own API client.
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Name() string { return "stripe" }

// CreateCheckoutSession opens a card checkout session with a destination
// transfer and an application fee. The SDK applies its own bounded retries on
// transient network failures; we add no timeout beyond the context's.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(li.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
			},
			Quantity: stripe.Int64(qty),
		})
	}

	intentData := &stripe.CheckoutSessionPaymentIntentDataParams{
		ApplicationFeeAmount: stripe.Int64(req.ApplicationFeeCents),
		TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
			Destination: stripe.String(req.DestinationAccount),
		},
	}
	if req.ManualCapture {
		intentData.CaptureMethod = stripe.String("manual")
	}
	if len(req.Metadata) > 0 {
		intentData.Metadata = req.Metadata
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		PaymentIntentData:  intentData,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddExpand("payment_intent")

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	result := &Session{ID: sess.ID, URL: sess.URL}
	if sess.PaymentIntent != nil {
		result.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.ExpiresAt > 0 {
		result.ExpiresAt = unixTime(sess.ExpiresAt)
	}
	return result, nil
}

// CapturePaymentIntent captures a manually-held payment intent.
func (g *StripeGateway) CapturePaymentIntent(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	if _, err := g.api.PaymentIntents.Capture(paymentIntentID, params); err != nil {
		return mapStripeError(err)
	}
	return nil
}

// CancelPaymentIntent cancels an uncaptured payment intent.
func (g *StripeGateway) CancelPaymentIntent(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := g.api.PaymentIntents.Cancel(paymentIntentID, params); err != nil {
		return mapStripeError(err)
	}
	return nil
}

// RefundPaymentIntent refunds a captured payment intent in full.
func (g *StripeGateway) RefundPaymentIntent(ctx context.Context, paymentIntentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	if _, err := g.api.Refunds.New(params); err != nil {
		return mapStripeError(err)
	}
	return nil
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// mapStripeError preserves the gateway's own categorization: card-level
// declines and request-level rejections stay client-facing, availability
// problems map to ErrGatewayUnavailable.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe: %w: %v", domainErrors.ErrGatewayUnavailable, err)
	}

	switch stripeErr.Type {
	case stripe.ErrorTypeCard:
		return domainErrors.NewDomainError(
			string(stripeErr.Code),
			stripeErr.Msg,
			domainErrors.ErrCardDeclined,
		)
	case stripe.ErrorTypeInvalidRequest, stripe.ErrorTypeIdempotency:
		return domainErrors.NewDomainError(
			string(stripeErr.Code),
			stripeErr.Msg,
			domainErrors.ErrGatewayRejected,
		)
	default:
		return fmt.Errorf("stripe %s: %w: %s", stripeErr.Type, domainErrors.ErrGatewayUnavailable, stripeErr.Msg)
	}
}
