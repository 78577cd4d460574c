package gateway

import (
	"context"
	"fmt"

	"github.com/razorpay/razorpay-go"

	"ridebook/internal/config"
	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// RazorpayGateway implements service.PaymentGateway against the Razorpay
// API. Domain amounts are in major units; Razorpay takes paise.
type RazorpayGateway struct {
	client *razorpay.Client
}

// Ensure the interface is satisfied.
var _ service.PaymentGateway = (*RazorpayGateway)(nil)

// NewRazorpayGateway creates a payment gateway client.
func NewRazorpayGateway(cfg config.RazorpayConfig) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
	}
}

// CreateOrder opens a gateway order for amount in major units.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*service.GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   amount * 100,
		"currency": currency,
		"receipt":  receipt,
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create order: %v", service.ErrExternalService, err)
	}

	id, ok := order["id"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: order response missing id", service.ErrExternalService)
	}

	return &service.GatewayOrder{
		ID:       id,
		Amount:   asInt64(order["amount"]),
		Currency: stringOr(order["currency"], currency),
		Receipt:  stringOr(order["receipt"], receipt),
	}, nil
}

// Refund issues a refund against a captured payment for amount in major
// units.
func (g *RazorpayGateway) Refund(ctx context.Context, gatewayPaymentID string, amount int64) (*domain.Refund, error) {
	data := map[string]interface{}{
		"speed": "normal",
	}

	refund, err := g.client.Payment.Refund(gatewayPaymentID, int(amount*100), data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: refund: %v", service.ErrExternalService, err)
	}

	id, ok := refund["id"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: refund response missing id", service.ErrExternalService)
	}

	return &domain.Refund{
		ID:     id,
		Status: stringOr(refund["status"], "processed"),
		Amount: asInt64(refund["amount"]),
	}, nil
}

// asInt64 tolerates the numeric types razorpay-go's map responses decode to.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
