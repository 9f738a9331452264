package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) SeatMap(ctx context.Context, flightID int64) (*flights.SeatMap, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flights.SeatMap), args.Error(1)
}

func (m *MockFlightUseCase) CreateFlight(ctx context.Context, input flights.CreateFlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (*domain.Flight, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

var departure = time.Date(2026, 7, 3, 9, 30, 0, 0, time.UTC)

func testFlight() *domain.Flight {
	return &domain.Flight{
		ID:                1,
		FlightNumber:      "SL101",
		AircraftID:        3,
		FromAirport:       "DUB",
		ToAirport:         "LHR",
		DepartureTime:     departure,
		ArrivalTime:       departure.Add(80 * time.Minute),
		DurationMinutes:   80,
		Status:            domain.FlightStatusScheduled,
		EconomyPriceCents: 5000,
		EconomyAvailable:  42,
	}
}

func TestFlightHandler_list(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/flights", nil)

	mockService.On("List", c.Request.Context()).Return([]domain.Flight{*testFlight()}, nil)

	handler.list(c)

	require.Equal(t, http.StatusOK, w.Code)
	var got []flightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "SL101", got[0].FlightNumber)
	assert.Equal(t, "2026-07-03T09:30:00Z", got[0].DepartureTime)
	assert.Equal(t, 42, got[0].EconomyAvailable)

	mockService.AssertExpectations(t)
}

func TestFlightHandler_listEmpty(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/flights", nil)

	mockService.On("List", c.Request.Context()).Return(nil, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestFlightHandler_get(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("GET", "/flights/1", nil)

	mockService.On("GetByID", c.Request.Context(), int64(1)).Return(testFlight(), nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_getNotFound(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "9"}}
	c.Request = httptest.NewRequest("GET", "/flights/9", nil)

	mockService.On("GetByID", c.Request.Context(), int64(9)).
		Return(nil, fmt.Errorf("%w: flight 9", domain.ErrNotFound))

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found: flight 9","kind":"NOT_FOUND"}`, w.Body.String())
}

func TestFlightHandler_getInvalidID(t *testing.T) {
	for _, id := range []string{"abc", "0", "-3"} {
		t.Run(id, func(t *testing.T) {
			mockService := &MockFlightUseCase{}
			handler := NewFlightHandler(mockService)

			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: id}}
			c.Request = httptest.NewRequest("GET", "/flights/"+id, nil)

			handler.get(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mockService.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestFlightHandler_seats(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("GET", "/flights/1/seats", nil)

	seatMap := &flights.SeatMap{
		Flight: *testFlight(),
		Seats: []domain.FlightSeat{
			{ID: 10, FlightID: 1, SeatNumber: "1A", TravelClass: domain.TravelClassEconomy, IsAvailable: true},
			{ID: 11, FlightID: 1, SeatNumber: "1B", TravelClass: domain.TravelClassEconomy},
		},
	}
	mockService.On("SeatMap", c.Request.Context(), int64(1)).Return(seatMap, nil)

	handler.seats(c)

	require.Equal(t, http.StatusOK, w.Code)
	var got seatMapResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.Flight.ID)
	assert.Equal(t, []seatResponse{
		{ID: 10, SeatNumber: "1A", TravelClass: "ECONOMY", Available: true},
		{ID: 11, SeatNumber: "1B", TravelClass: "ECONOMY", Available: false},
	}, got.Seats)
}

func TestFlightHandler_create(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"flight_number":"SL101","aircraft_id":3,"from_airport":"DUB","to_airport":"LHR",
		"departure_time":"2026-07-03T09:30:00Z","arrival_time":"2026-07-03T10:50:00Z","economy_price_cents":5000}`
	c.Request = httptest.NewRequest("POST", "/flights", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	matches := mock.MatchedBy(func(in flights.CreateFlightInput) bool {
		return in.FlightNumber == "SL101" && in.AircraftID == 3 && in.DepartureTime.Equal(departure)
	})
	mockService.On("CreateFlight", c.Request.Context(), matches).Return(testFlight(), nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_createMalformed(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/flights", strings.NewReader(`{"aircraft_id":"three"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateFlight", mock.Anything, mock.Anything)
}

func TestFlightHandler_updateStatus(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("PATCH", "/flights/1/status", strings.NewReader(`{"status":"DELAYED"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	delayed := testFlight()
	delayed.Status = domain.FlightStatusDelayed
	mockService.On("UpdateStatus", c.Request.Context(), int64(1), domain.FlightStatusDelayed).Return(delayed, nil)

	handler.updateStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"DELAYED"`)
}

func TestFlightHandler_internalErrorIsMasked(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/flights", nil)

	mockService.On("List", c.Request.Context()).Return(nil, errors.New("dial tcp 10.0.0.7:5432: connection refused"))

	handler.list(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error","kind":"INTERNAL"}`, w.Body.String())
	require.Len(t, c.Errors, 1)
}
