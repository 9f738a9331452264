package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/payment"
	"github.com/Domenick1991/seatledger/internal/service/booking"
	"github.com/Domenick1991/seatledger/internal/service/cancellation"
	"github.com/gin-gonic/gin"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	defaultActor      = "customer"
)

type BookingHandler struct {
	service       booking.BookingUseCase
	cancellations cancellation.CancellationUseCase
}

type contactResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type passengerResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Type      string `json:"type"`
}

type allocationResponse struct {
	ID              int64  `json:"id"`
	BookingFlightID int64  `json:"booking_flight_id"`
	PassengerID     int64  `json:"passenger_id"`
	SeatNumber      string `json:"seat_number"`
}

type legResponse struct {
	ID          int64                `json:"id"`
	FlightID    int64                `json:"flight_id"`
	TravelClass string               `json:"travel_class"`
	FareCents   int64                `json:"fare_cents"`
	BaggageKg   int                  `json:"baggage_kg"`
	Seats       []allocationResponse `json:"seats"`
}

type paymentResponse struct {
	TransactionID string  `json:"transaction_id"`
	AmountCents   int64   `json:"amount_cents"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
}

type bookingResponse struct {
	ID               int64               `json:"id"`
	Reference        string              `json:"reference"`
	UserID           int64               `json:"user_id,omitempty"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	TotalAmountCents int64               `json:"total_amount_cents"`
	ExpiresAt        string              `json:"expires_at"`
	CancelledAt      *string             `json:"cancelled_at,omitempty"`
	CreatedAt        string              `json:"created_at"`
	Contact          contactResponse     `json:"contact"`
	Passengers       []passengerResponse `json:"passengers"`
	Legs             []legResponse       `json:"legs"`
	Payments         []paymentResponse   `json:"payments"`
}

type paymentCallbackRequest struct {
	TransactionID string    `json:"transaction_id" binding:"required"`
	Status        string    `json:"status" binding:"required"`
	ProcessedAt   time.Time `json:"processed_at"`
}

type cancelRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason" binding:"max=256"`
}

type cancelResponse struct {
	BookingReference string `json:"booking_reference"`
	Actor            string `json:"actor"`
	Reason           string `json:"reason,omitempty"`
	FeeCents         int64  `json:"fee_cents"`
	RefundCents      int64  `json:"refund_cents"`
	SeatsReleased    int    `json:"seats_released"`
	CreatedAt        string `json:"created_at"`
}

type refundResponse struct {
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type cancellationResponse struct {
	cancelResponse
	Refunds []refundResponse `json:"refunds"`
}

func NewBookingHandler(service booking.BookingUseCase, cancellations cancellation.CancellationUseCase) *BookingHandler {
	return &BookingHandler{service: service, cancellations: cancellations}
}

// Register mounts the booking routes. guards run before booking creation only.
func (h *BookingHandler) Register(router *gin.RouterGroup, guards ...gin.HandlerFunc) {
	router.POST("", append(guards, h.create)...)
	router.GET("/:reference", h.get)
	router.POST("/:reference/payment", h.pay)
	router.POST("/:reference/payment/callback", h.paymentCallback)
	router.PUT("/:reference/seats", h.changeSeat)
	router.POST("/:reference/complete", h.complete)
	router.POST("/:reference/cancel", h.cancel)
	router.GET("/:reference/cancellation", h.cancellation)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(IdempotencyHeader))

	b, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) pay(c *gin.Context) {
	p, err := h.service.InitiatePayment(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toPaymentResponse(p))
}

func (h *BookingHandler) paymentCallback(c *gin.Context) {
	var req paymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.HandlePaymentResult(c.Request.Context(), payment.Result{
		TransactionID: req.TransactionID,
		Reference:     c.Param("reference"),
		Status:        domain.PaymentStatus(req.Status),
		ProcessedAt:   req.ProcessedAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) changeSeat(c *gin.Context) {
	var req booking.ChangeSeatInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.Reference = c.Param("reference")

	a, err := h.service.ChangeSeat(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, allocationResponse{
		ID:              a.ID,
		BookingFlightID: a.BookingFlightID,
		PassengerID:     a.PassengerID,
		SeatNumber:      a.SeatNumber,
	})
}

func (h *BookingHandler) complete(c *gin.Context) {
	b, err := h.service.CompleteBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return
	}
	if req.Actor == "" {
		req.Actor = defaultActor
	}

	reference := c.Param("reference")
	history, err := h.cancellations.Cancel(c.Request.Context(), reference, req.Actor, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCancelResponse(reference, history))
}

func (h *BookingHandler) cancellation(c *gin.Context) {
	reference := c.Param("reference")
	got, err := h.cancellations.GetCancellation(c.Request.Context(), reference)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := cancellationResponse{
		cancelResponse: toCancelResponse(reference, &got.History),
		Refunds:        make([]refundResponse, 0, len(got.Refunds)),
	}
	for _, r := range got.Refunds {
		resp.Refunds = append(resp.Refunds, refundResponse{
			AmountCents: r.AmountCents,
			Status:      string(r.Status),
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:               b.ID,
		Reference:        b.Reference,
		UserID:           b.UserID,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		TotalAmountCents: b.TotalAmountCents,
		ExpiresAt:        b.ExpiresAt.Format(time.RFC3339),
		CancelledAt:      formatOptional(b.CancelledAt),
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
		Contact:          contactResponse{Name: b.ContactName, Email: b.ContactEmail, Phone: b.ContactPhone},
		Passengers:       make([]passengerResponse, 0, len(b.Passengers)),
		Legs:             make([]legResponse, 0, len(b.Flights)),
		Payments:         make([]paymentResponse, 0, len(b.Payments)),
	}

	for _, p := range b.Passengers {
		resp.Passengers = append(resp.Passengers, passengerResponse{
			ID:        p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Type:      string(p.Type),
		})
	}
	for _, leg := range b.Flights {
		lr := legResponse{
			ID:          leg.ID,
			FlightID:    leg.FlightID,
			TravelClass: string(leg.TravelClass),
			FareCents:   leg.FareCents,
			BaggageKg:   leg.BaggageKg,
			Seats:       []allocationResponse{},
		}
		for _, a := range b.Allocations {
			if a.BookingFlightID != leg.ID {
				continue
			}
			lr.Seats = append(lr.Seats, allocationResponse{
				ID:              a.ID,
				BookingFlightID: a.BookingFlightID,
				PassengerID:     a.PassengerID,
				SeatNumber:      a.SeatNumber,
			})
		}
		resp.Legs = append(resp.Legs, lr)
	}
	for i := range b.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(&b.Payments[i]))
	}
	return resp
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		TransactionID: p.TransactionID,
		AmountCents:   p.AmountCents,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		ProcessedAt:   formatOptional(p.ProcessedAt),
	}
}

func toCancelResponse(reference string, h *domain.CancelHistory) cancelResponse {
	return cancelResponse{
		BookingReference: reference,
		Actor:            h.Actor,
		Reason:           h.Reason,
		FeeCents:         h.FeeCents,
		RefundCents:      h.RefundCents,
		SeatsReleased:    h.SeatsReleased,
		CreatedAt:        h.CreatedAt.Format(time.RFC3339),
	}
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
