package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/auth"
	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// RequestRideRequest is the HTTP request body for requesting a ride.
type RequestRideRequest struct {
	Pickup  string `json:"pickup"`
	Dropoff string `json:"dropoff"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID          string  `json:"id"`
	RiderID     string  `json:"rider_id"`
	RiderName   string  `json:"rider_name,omitempty"`
	RiderPhone  string  `json:"rider_phone,omitempty"`
	DriverID    string  `json:"driver_id,omitempty"`
	Pickup      string  `json:"pickup"`
	Dropoff     string  `json:"dropoff"`
	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
	DropoffLat  float64 `json:"dropoff_lat"`
	DropoffLng  float64 `json:"dropoff_lng"`
	Status      string  `json:"status"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
	Fare        int64   `json:"fare"`
	CreatedAt   string  `json:"created_at"`
	StartedAt   string  `json:"started_at,omitempty"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:          ride.ID,
		RiderID:     ride.RiderID,
		RiderName:   ride.RiderName,
		RiderPhone:  ride.RiderPhone,
		DriverID:    ride.DriverID,
		Pickup:      ride.Pickup,
		Dropoff:     ride.Dropoff,
		PickupLat:   ride.PickupLat,
		PickupLng:   ride.PickupLng,
		DropoffLat:  ride.DropoffLat,
		DropoffLng:  ride.DropoffLng,
		Status:      string(ride.Status),
		DistanceKm:  ride.DistanceKm,
		DurationMin: ride.DurationMin,
		Fare:        ride.Fare,
		CreatedAt:   ride.CreatedAt.Format(time.RFC3339),
	}

	if !ride.StartedAt.IsZero() {
		resp.StartedAt = ride.StartedAt.Format(time.RFC3339)
	}
	if !ride.CompletedAt.IsZero() {
		resp.CompletedAt = ride.CompletedAt.Format(time.RFC3339)
	}

	return resp
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	responses := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		responses = append(responses, toRideResponse(ride))
	}
	return responses
}

// Request handles POST /ride/request
func (h *RideHandler) Request(c *gin.Context) {
	var req RequestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	ride, err := h.rideService.Create(c.Request.Context(), service.CreateRideRequest{
		RiderID: auth.CallerID(c),
		Pickup:  req.Pickup,
		Dropoff: req.Dropoff,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"ride": toRideResponse(ride)})
}

// Accept handles POST /ride/accept/:ride_id
func (h *RideHandler) Accept(c *gin.Context) {
	ride, err := h.rideService.Accept(c.Request.Context(), auth.CallerID(c), c.Param("ride_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"ride": toRideResponse(ride)})
}

// Start handles POST /ride/start/:ride_id
func (h *RideHandler) Start(c *gin.Context) {
	_, err := h.rideService.Start(c.Request.Context(), auth.CallerID(c), c.Param("ride_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "ride started successfully"})
}

// Complete handles POST /ride/complete/:ride_id
func (h *RideHandler) Complete(c *gin.Context) {
	ride, err := h.rideService.Complete(c.Request.Context(), auth.CallerID(c), c.Param("ride_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"message": "ride completed successfully",
		"ride":    toRideResponse(ride),
	})
}

// Cancel handles POST /ride/cancel/:ride_id
func (h *RideHandler) Cancel(c *gin.Context) {
	_, err := h.rideService.CancelByDriver(c.Request.Context(), auth.CallerID(c), c.Param("ride_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "ride canceled successfully"})
}

// Available handles GET /ride/available
func (h *RideHandler) Available(c *gin.Context) {
	rides, err := h.rideService.AvailableRides(c.Request.Context(), auth.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"rides": toRideResponses(rides)})
}

// Current handles GET /ride/current
func (h *RideHandler) Current(c *gin.Context) {
	ride, err := h.rideService.CurrentRide(c.Request.Context(), auth.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if ride == nil {
		respondJSON(c, http.StatusOK, gin.H{"ride": nil})
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"ride": toRideResponse(ride)})
}

// MyRides handles GET /ride/my-rides
func (h *RideHandler) MyRides(c *gin.Context) {
	rides, err := h.rideService.RidesForRider(c.Request.Context(), auth.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"ongoing":   toRideResponses(rides.Ongoing),
		"completed": toRideResponses(rides.Completed),
	})
}

// Completed handles GET /ride/completed
func (h *RideHandler) Completed(c *gin.Context) {
	rides, err := h.rideService.CompletedRides(c.Request.Context(), auth.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"rides": toRideResponses(rides)})
}

// Stats handles GET /ride/stats
func (h *RideHandler) Stats(c *gin.Context) {
	stats, err := h.rideService.StatsForDriver(c.Request.Context(), auth.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"completed_rides": stats.CompletedRides,
		"today_earnings":  stats.TodayEarnings,
	})
}

// DriverDetails handles GET /ride/driver/:ride_id
func (h *RideHandler) DriverDetails(c *gin.Context) {
	details, err := h.rideService.DriverForRide(c.Request.Context(), c.Param("ride_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"driver": gin.H{
		"name":            details.Name,
		"phone":           details.Phone,
		"vehicle_no":      details.VehicleNo,
		"vehicle_model":   details.VehicleModel,
		"completed_rides": details.CompletedRides,
	}})
}
