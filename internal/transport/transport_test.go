package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/eventtickets/internal/entity"
	"github.com/ds124wfegd/eventtickets/internal/service"
	"github.com/ds124wfegd/eventtickets/internal/transport/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEventService struct {
	createReq *service.CreateEventRequest
	updateReq *service.UpdateEventRequest
	nameQuery string
	err       error
}

func (s *stubEventService) CreateEvent(_ context.Context, req *service.CreateEventRequest) (*entity.Event, error) {
	s.createReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Event{ID: 1, Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate, TotalTickets: req.TotalTickets}, nil
}

func (s *stubEventService) GetEvent(_ context.Context, id int64) (*entity.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Event{ID: id, Name: "Concert", TotalTickets: 1}, nil
}

func (s *stubEventService) GetAllEvents(_ context.Context, name string) ([]*entity.Event, error) {
	s.nameQuery = name
	if s.err != nil {
		return nil, s.err
	}
	return []*entity.Event{{ID: 1, Name: "Concert"}}, nil
}

func (s *stubEventService) UpdateEvent(_ context.Context, id int64, req *service.UpdateEventRequest) (*entity.Event, error) {
	s.updateReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Event{ID: id}, nil
}

func (s *stubEventService) DeleteEvent(_ context.Context, _ int64) error {
	return s.err
}

type stubTicketService struct {
	eventFilter *int64
	err         error
}

func (s *stubTicketService) SellTicket(_ context.Context, eventID int64) (*entity.Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Ticket{ID: 10, EventID: eventID, Status: entity.TicketStatusSold}, nil
}

func (s *stubTicketService) RedeemTicket(_ context.Context, ticketID int64) (*entity.Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	now := time.Now()
	return &entity.Ticket{ID: ticketID, EventID: 1, Status: entity.TicketStatusRedeemed, RedeemedAt: &now}, nil
}

func (s *stubTicketService) GetTicket(_ context.Context, id int64) (*entity.Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Ticket{ID: id}, nil
}

func (s *stubTicketService) GetAllTickets(_ context.Context, eventID *int64) ([]*entity.Ticket, error) {
	s.eventFilter = eventID
	if s.err != nil {
		return nil, s.err
	}
	return []*entity.Ticket{}, nil
}

func (s *stubTicketService) GetEventTickets(_ context.Context, eventID int64) ([]*entity.Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*entity.Ticket{{ID: 1, EventID: eventID}}, nil
}

func (s *stubTicketService) DeleteTicket(_ context.Context, _ int64) error {
	return s.err
}

func newTestRouter(es *stubEventService, ts *stubTicketService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return InitRoutes(NewEventHandler(es, ts), NewTicketHandler(ts), time.Second)
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// TestErrorMapping проверяет соответствие ошибок сервиса HTTP статусам
func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        entity.NewValidationError("total tickets must be between 1 and 300"),
			wantStatus: http.StatusBadRequest,
			wantCode:   codeValidation,
			wantMsg:    "total tickets must be between 1 and 300",
		},
		{
			name:       "not found",
			err:        entity.ErrEventNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   codeNotFound,
			wantMsg:    "event not found",
		},
		{
			name:       "conflict",
			err:        entity.ErrNoTicketsAvailable,
			wantStatus: http.StatusConflict,
			wantCode:   codeConflict,
			wantMsg:    "no tickets available",
		},
		{
			name:       "integrity",
			err:        entity.ErrTicketEventNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   codeNotFound,
			wantMsg:    "associated event not found",
		},
		{
			name:       "internal",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   codeInternal,
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubEventService{}, &stubTicketService{err: tt.err})

			w := doRequest(router, http.MethodPost, "/api/v1/events/1/tickets", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Error)
		})
	}
}

func TestCreateEvent(t *testing.T) {
	es := &stubEventService{}
	router := newTestRouter(es, &stubTicketService{})

	w := doRequest(router, http.MethodPost, "/api/v1/events",
		`{"name":"Concert","start_date":"2024-12-01","end_date":"2024-12-02","total_tickets":1}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, es.createReq)
	assert.Equal(t, "Concert", es.createReq.Name)
	assert.Equal(t, "2024-12-01", es.createReq.StartDate.String())
	assert.JSONEq(t,
		`{"id":1,"name":"Concert","start_date":"2024-12-01","end_date":"2024-12-02","total_tickets":1,"sold_tickets":0,"redeemed_tickets":0}`,
		w.Body.String())
}

func TestCreateEvent_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"name":`},
		{name: "bad date", body: `{"name":"Concert","start_date":"01/12/2024","end_date":"2024-12-02","total_tickets":1}`},
		{name: "string capacity", body: `{"name":"Concert","start_date":"2024-12-01","end_date":"2024-12-02","total_tickets":"one"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			es := &stubEventService{}
			router := newTestRouter(es, &stubTicketService{})

			w := doRequest(router, http.MethodPost, "/api/v1/events", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, codeInvalidRequest, decodeError(t, w).Code)
			assert.Nil(t, es.createReq)
		})
	}
}

func TestUpdateEvent_Partial(t *testing.T) {
	es := &stubEventService{}
	router := newTestRouter(es, &stubTicketService{})

	w := doRequest(router, http.MethodPatch, "/api/v1/events/5", `{"total_tickets":20}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, es.updateReq)
	require.NotNil(t, es.updateReq.TotalTickets)
	assert.Equal(t, 20, *es.updateReq.TotalTickets)
	assert.Nil(t, es.updateReq.Name)
	assert.Nil(t, es.updateReq.StartDate)
	assert.Nil(t, es.updateReq.EndDate)
}

func TestDeleteEvent_Conflict(t *testing.T) {
	router := newTestRouter(&stubEventService{err: entity.ErrEventHasSoldTickets}, &stubTicketService{})

	w := doRequest(router, http.MethodDelete, "/api/v1/events/3", "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, entity.ErrEventHasSoldTickets.Error(), decodeError(t, w).Error)
}

func TestGetAllEvents_PassesNameFilter(t *testing.T) {
	es := &stubEventService{}
	router := newTestRouter(es, &stubTicketService{})

	w := doRequest(router, http.MethodGet, "/api/v1/events?name=rock", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rock", es.nameQuery)
}

func TestInvalidIDs(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/api/v1/events/abc"},
		{method: http.MethodGet, path: "/api/v1/events/0"},
		{method: http.MethodDelete, path: "/api/v1/events/-1"},
		{method: http.MethodPost, path: "/api/v1/events/x/tickets"},
		{method: http.MethodGet, path: "/api/v1/tickets/1.5"},
		{method: http.MethodPost, path: "/api/v1/tickets/abc/redeem"},
		{method: http.MethodGet, path: "/api/v1/tickets?event_id=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			router := newTestRouter(&stubEventService{}, &stubTicketService{})

			w := doRequest(router, tt.method, tt.path, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, codeInvalidRequest, decodeError(t, w).Code)
		})
	}
}

func TestTicketRoutes(t *testing.T) {
	ts := &stubTicketService{}
	router := newTestRouter(&stubEventService{}, ts)

	w := doRequest(router, http.MethodPost, "/api/v1/events/4/tickets", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var sold entity.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sold))
	assert.Equal(t, int64(4), sold.EventID)
	assert.Equal(t, entity.TicketStatusSold, sold.Status)

	w = doRequest(router, http.MethodPost, "/api/v1/tickets/10/redeem", "")
	require.Equal(t, http.StatusOK, w.Code)
	var redeemed entity.Ticket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &redeemed))
	assert.Equal(t, entity.TicketStatusRedeemed, redeemed.Status)
	assert.NotNil(t, redeemed.RedeemedAt)

	w = doRequest(router, http.MethodGet, "/api/v1/tickets?event_id=4", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, ts.eventFilter)
	assert.Equal(t, int64(4), *ts.eventFilter)

	w = doRequest(router, http.MethodGet, "/api/v1/tickets", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, ts.eventFilter)

	w = doRequest(router, http.MethodGet, "/api/v1/events/4/tickets", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/v1/tickets/10", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestRequestIDAndHealth(t *testing.T) {
	router := newTestRouter(&stubEventService{}, &stubTicketService{})

	w := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "3f2c1a7e-8d4b-4e5f-9a6b-7c8d9e0f1a2b")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "3f2c1a7e-8d4b-4e5f-9a6b-7c8d9e0f1a2b", w.Header().Get(middleware.RequestIDHeader))
}

func TestNoRoute(t *testing.T) {
	router := newTestRouter(&stubEventService{}, &stubTicketService{})

	w := doRequest(router, http.MethodGet, "/api/v1/unknown", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, codeNotFound, decodeError(t, w).Code)
}
