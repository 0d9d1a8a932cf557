package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bobbystable/internal/auth"
	"bobbystable/internal/clock"
	"bobbystable/internal/conversation"
	"bobbystable/internal/db"
	"bobbystable/internal/entities"
	"bobbystable/internal/repository"
	"bobbystable/internal/service"
	"bobbystable/internal/slots"
)

const testDate = "2025-01-15"

type testServer struct {
	handler  http.Handler
	repo     *repository.ReservationRepository
	calls    *conversation.Manager
	notifier *service.Notifier
	tokens   *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clk := clock.Fake(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	notifier := service.NewNotifier()
	repo := repository.NewReservationRepository(slots.Default(), notifier, clk)
	svc := service.NewReservationService(repo)
	calls := conversation.NewManager(conversation.NewMachine(svc, repo, clk, "Bobby's Table", time.UTC), clk)
	tokens := auth.NewTokenIssuer([]byte("test-secret"), clk)
	sessions := auth.NewSessionManager(nil, nil)

	hash, err := repository.HashPassword("s3cret")
	require.NoError(t, err)
	admins := repository.NewAdminAuthRepository(repository.Admin{Username: "manager", PasswordHash: hash})

	rt := Router{
		System: &SystemHandler{
			RestaurantName: "Bobby's Table",
			CallAddress:    "sip:host@bobbys.example",
			Schedule:       slots.Default(),
			Calls:          calls,
			Notifier:       notifier,
			Tokens:         tokens,
		},
		Calls:     NewCallHandler(calls),
		Admin:     NewAdminHandler(svc, repo, notifier, 16),
		AdminAuth: NewAdminAuthHandler(service.NewAdminAuthService(admins, tokens), sessions),
		Sessions:  sessions,
		Tokens:    tokens,
	}
	return &testServer{
		handler:  Wrap(rt.Build(), []string{"*"}, io.Discard),
		repo:     repo,
		calls:    calls,
		notifier: notifier,
		tokens:   tokens,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) guestToken(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/get_token", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sip:host@bobbys.example", resp.CallAddress)
	return resp.Token
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/admin/login", "", LoginRequest{Username: "manager", Password: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type callBody struct {
	CallID      string          `json:"call_id"`
	Stage       string          `json:"stage"`
	Path        []string        `json:"path"`
	Message     string          `json:"message"`
	Reservation *db.Reservation `json:"reservation"`
	Error       string          `json:"error"`
}

func seed(t *testing.T, repo *repository.ReservationRepository, tm string) db.Reservation {
	t.Helper()
	res, err := repo.Create(entities.ReservationRequest{Name: "John Smith", PartySize: 2, Date: testDate, Time: tm, Phone: "555-123-4567"})
	require.NoError(t, err)
	return res
}

func TestSystemEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/config", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[ConfigResponse](t, rec)
	assert.Equal(t, "Bobby's Table", cfg.RestaurantName)
	assert.Len(t, cfg.Slots, 5)
	assert.Equal(t, 20, cfg.MaxPartySize)

	s.calls.Begin("call-1")
	rec = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, 1, decode[ReadyResponse](t, rec).ActiveCalls)
}

func TestCallEndpointsNeedToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/calls", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.guestToken(t)

	rec := s.do(t, http.MethodPost, "/api/calls", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	call := decode[callBody](t, rec)
	require.NotEmpty(t, call.CallID)
	assert.Equal(t, "greeting", call.Stage)

	actions := []string{
		`{"action":"start_new_reservation"}`,
		`{"action":"set_reservation_name","args":{"name":"John Smith"}}`,
		`{"action":"set_party_size","args":{"party_size":4}}`,
		`{"action":"set_reservation_date","args":{"date":"2025-01-15"}}`,
		`{"action":"set_reservation_time","args":{"time":"7pm"}}`,
		`{"action":"set_phone_number","args":{"phone":"555-123-4567"}}`,
		`{"action":"set_special_requests","args":{"special_requests":"none"}}`,
		`{"action":"confirm_reservation"}`,
	}
	for _, body := range actions {
		req := httptest.NewRequest(http.MethodPost, "/api/calls/"+call.CallID+"/actions", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec = httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, body)
		require.Empty(t, decode[callBody](t, rec).Error, body)
	}

	done := decode[callBody](t, rec)
	assert.Equal(t, "committed", done.Stage)
	require.NotNil(t, done.Reservation)
	assert.Equal(t, 4, done.Reservation.PartySize)

	rec = s.do(t, http.MethodGet, "/api/reservations", "", nil)
	list := decode[entities.ReservationsList](t, rec)
	assert.Equal(t, 1, list.TotalCount)
	assert.Len(t, list.Reservations[testDate], 1)

	rec = s.do(t, http.MethodGet, "/api/availability/"+testDate, "", nil)
	avail := decode[entities.AvailabilityResponse](t, rec)
	slot, ok := avail.Slot("19:00")
	require.True(t, ok)
	assert.Equal(t, 1, slot.CapacityUsed)
	assert.Equal(t, 5, slot.CapacityMax)
}

func TestCallActionErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.guestToken(t)
	s.calls.Begin("call-1")

	rec := s.do(t, http.MethodPost, "/api/calls/call-1/actions", token, map[string]any{"action": "set_phone_number", "args": map[string]string{"phone": "555"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[callBody](t, rec)
	assert.Equal(t, "invalid_input", body.Error)
	assert.Equal(t, "greeting", body.Stage)

	rec = s.do(t, http.MethodPost, "/api/calls/call-1/actions", token, map[string]any{"action": "order_pizza"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/calls/nobody/actions", token, map[string]any{"action": "hangup"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/calls/call-1", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abandoned", decode[callBody](t, rec).Stage)

	rec = s.do(t, http.MethodGet, "/api/calls/call-1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookupByNumericReservationID(t *testing.T) {
	s := newTestServer(t)
	token := s.guestToken(t)
	res := seed(t, s.repo, "19:00")

	rec := s.do(t, http.MethodPost, "/api/calls/call-9", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/calls/call-9/actions",
		strings.NewReader(`{"action":"lookup_reservation","args":{"reservation_id":`+res.ID+`}}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	body := decode[callBody](t, rec)
	assert.Equal(t, "awaiting_manage_choice", body.Stage)
	assert.Equal(t, []string{"lookup", "found", "awaiting_manage_choice"}, body.Path)
}

func TestAvailabilityRejectsBadDate(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/availability/15-01-2025", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_input")
}

func TestAdminLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/admin/login", "", LoginRequest{Username: "manager", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/login", "", LoginRequest{Username: "manager", Password: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	res := seed(t, s.repo, "19:00")
	req := httptest.NewRequest(http.MethodGet, "/admin/reservations/"+res.ID, nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminReservationEndpoints(t *testing.T) {
	s := newTestServer(t)
	res := seed(t, s.repo, "19:00")
	for i := 0; i < 5; i++ {
		seed(t, s.repo, "20:00")
	}

	rec := s.do(t, http.MethodGet, "/admin/reservations/"+res.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodGet, "/admin/reservations/"+res.ID, s.guestToken(t), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := s.adminToken(t)

	rec = s.do(t, http.MethodPut, "/admin/reservations/"+res.ID, token, map[string]any{"time": "20:00"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "capacity_exceeded")

	rec = s.do(t, http.MethodPut, "/admin/reservations/"+res.ID, token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/admin/reservations/"+res.ID, token, map[string]any{"party_size": 8})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8, decode[db.Reservation](t, rec).PartySize)

	rec = s.do(t, http.MethodDelete, "/admin/reservations/"+res.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/admin/reservations/"+res.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/reservations/"+res.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, db.StatusCancelled, decode[db.Reservation](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/admin/reservations/000000", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	res := seed(t, s.repo, "19:00")

	fields := map[string]string{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		key, value, _ := strings.Cut(line, ":")
		fields[key] = strings.TrimSpace(value)
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, "1", fields["id"])
	assert.Equal(t, "created", fields["event"])
	var evt entities.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(fields["data"]), &evt))
	assert.Equal(t, res.ID, evt.ID())
	assert.Equal(t, uint64(1), evt.Sequence)
}
