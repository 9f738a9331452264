package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type flightResponse struct {
	ID                 int64  `json:"id"`
	FlightNumber       string `json:"flight_number"`
	AircraftID         int64  `json:"aircraft_id"`
	FromAirport        string `json:"from_airport"`
	ToAirport          string `json:"to_airport"`
	DepartureTime      string `json:"departure_time"`
	ArrivalTime        string `json:"arrival_time"`
	DurationMinutes    int    `json:"duration_minutes"`
	Status             string `json:"status"`
	EconomyPriceCents  int64  `json:"economy_price_cents"`
	BusinessPriceCents int64  `json:"business_price_cents"`
	FirstPriceCents    int64  `json:"first_price_cents"`
	EconomyAvailable   int    `json:"economy_available"`
	BusinessAvailable  int    `json:"business_available"`
	FirstAvailable     int    `json:"first_available"`
}

type seatResponse struct {
	ID          int64  `json:"id"`
	SeatNumber  string `json:"seat_number"`
	TravelClass string `json:"travel_class"`
	Available   bool   `json:"available"`
}

type seatMapResponse struct {
	Flight flightResponse `json:"flight"`
	Seats  []seatResponse `json:"seats"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seats)
	router.PATCH("/:id/status", h.updateStatus)
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]flightResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toFlightResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(flight))
}

func (h *FlightHandler) seats(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	m, err := h.service.SeatMap(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := seatMapResponse{Flight: toFlightResponse(&m.Flight), Seats: make([]seatResponse, 0, len(m.Seats))}
	for _, s := range m.Seats {
		resp.Seats = append(resp.Seats, seatResponse{
			ID:          s.ID,
			SeatNumber:  s.SeatNumber,
			TravelClass: string(s.TravelClass),
			Available:   s.IsAvailable,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flights.CreateFlightInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight, err := h.service.CreateFlight(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFlightResponse(flight))
}

func (h *FlightHandler) updateStatus(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight, err := h.service.UpdateStatus(c.Request.Context(), id, domain.FlightStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(flight))
}

func flightID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func toFlightResponse(f *domain.Flight) flightResponse {
	return flightResponse{
		ID:                 f.ID,
		FlightNumber:       f.FlightNumber,
		AircraftID:         f.AircraftID,
		FromAirport:        f.FromAirport,
		ToAirport:          f.ToAirport,
		DepartureTime:      f.DepartureTime.Format(time.RFC3339),
		ArrivalTime:        f.ArrivalTime.Format(time.RFC3339),
		DurationMinutes:    f.DurationMinutes,
		Status:             string(f.Status),
		EconomyPriceCents:  f.EconomyPriceCents,
		BusinessPriceCents: f.BusinessPriceCents,
		FirstPriceCents:    f.FirstPriceCents,
		EconomyAvailable:   f.EconomyAvailable,
		BusinessAvailable:  f.BusinessAvailable,
		FirstAvailable:     f.FirstAvailable,
	}
}
