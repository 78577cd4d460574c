package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/auth"
	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateOrderRequest is the HTTP request body for creating a payment order.
type CreateOrderRequest struct {
	RideID   string `json:"ride_id"`
	Currency string `json:"currency,omitempty"`
}

// VerifyPaymentRequest is the HTTP request body for a gateway callback.
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// CancelRideRequest is the HTTP request body for a rider cancellation.
type CancelRideRequest struct {
	RideID string `json:"ride_id"`
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID        string `json:"id"`
	RideID    string `json:"ride_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id,omitempty"`
	Status    string `json:"status"`
	RefundID  string `json:"refund_id,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        payment.ID,
		RideID:    payment.RideID,
		UserID:    payment.UserID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		OrderID:   payment.OrderID,
		PaymentID: payment.PaymentID,
		Status:    string(payment.Status),
		RefundID:  payment.RefundID,
		CreatedAt: payment.CreatedAt.Format(time.RFC3339),
		UpdatedAt: payment.UpdatedAt.Format(time.RFC3339),
	}
}

// RefundResponse is the HTTP representation of a gateway refund.
type RefundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// CreateOrder handles POST /payment/create-order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	if req.RideID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ride_id is required", Code: "validation_error"})
		return
	}

	result, err := h.paymentService.CreateOrder(c.Request.Context(), auth.CallerID(c), req.RideID, req.Currency)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"order": gin.H{
			"id":       result.Order.ID,
			"amount":   result.Order.Amount,
			"currency": result.Order.Currency,
			"receipt":  result.Order.Receipt,
		},
		"payment": toPaymentResponse(result.Payment),
	})
}

// Verify handles POST /payment/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	result, err := h.paymentService.VerifyCallback(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"message": "payment verified successfully, ride confirmed",
		"payment": toPaymentResponse(result.Payment),
		"ride":    toRideResponse(result.Ride),
	}
	if result.RideConflict {
		// The payment is recorded paid; only the ride transition was a
		// duplicate. Surfaced as a warning, not a failure.
		resp["message"] = "payment verified successfully"
		resp["warning"] = "ride already confirmed"
	}

	respondJSON(c, http.StatusOK, resp)
}

// Status handles GET /payment/status/:ride_id
func (h *PaymentHandler) Status(c *gin.Context) {
	payment, err := h.paymentService.LatestStatus(c.Request.Context(), c.Param("ride_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"payment": toPaymentResponse(payment)})
}

// Cancel handles POST /payment/cancel
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	if req.RideID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ride_id is required", Code: "validation_error"})
		return
	}

	result, err := h.paymentService.CancelWithRefund(c.Request.Context(), auth.CallerID(c), req.RideID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"message": "ride cancelled and refund processed",
		"refund": RefundResponse{
			ID:     result.Refund.ID,
			Status: result.Refund.Status,
			Amount: result.Refund.Amount,
		},
		"ride": toRideResponse(result.Ride),
	})
}
