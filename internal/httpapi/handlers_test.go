package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"gatherly.org/internal/auth"
	"gatherly.org/internal/events"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	codec, err := auth.NewTokenCodec("handlers-test-secret")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	authSvc, err := auth.NewService(auth.NewInMemoryStore(), codec)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	eventSvc, err := events.NewService(events.NewInMemoryStore())
	if err != nil {
		t.Fatalf("events.NewService: %v", err)
	}

	api := New(ReadyProbe{}, "test", authSvc, eventSvc, nil)
	api.rateBurst = 100
	api.ratePerSec = 100

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, token string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) register(email string, roles ...string) map[string]any {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name":         "Test User",
		"email":        email,
		"password":     "pass123",
		"organization": "Gatherly",
		"roles":        roles,
	}, "")
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("unexpected register status: %d", resp.StatusCode)
	}
	return decode[map[string]any](c.t, resp)
}

func (c *apiClient) login(email string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email":    email,
		"password": "pass123",
	}, "")
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	payload := decode[loginResponse](c.t, resp)
	if payload.Token == "" {
		c.t.Fatal("empty token issued")
	}
	return payload.Token
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func eventBody() map[string]any {
	return map[string]any{
		"name":        "Go Conference",
		"description": "Talks and workshops",
		"category":    "Tech",
		"date":        "2026-09-12",
		"location":    "Astana",
		"price":       25,
		"organizer":   "Gatherly",
	}
}

func TestHealthEndpointsArePublic(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		resp := api.do(http.MethodGet, path, nil, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	api := newTestAPI(t)

	user := api.register("new@example.com")
	if user["email"] != "new@example.com" {
		t.Fatalf("unexpected email: %v", user["email"])
	}
	roles, _ := user["roles"].([]any)
	if len(roles) != 1 || roles[0] != "ATTENDEE" {
		t.Fatalf("expected default ATTENDEE role, got %v", user["roles"])
	}
	if _, exposed := user["password"]; exposed {
		t.Fatal("password must not appear in the response")
	}

	token := api.login("new@example.com")
	if token == "" {
		t.Fatal("empty token")
	}

	// Wrong password is rejected with the same shape as unknown email.
	resp := api.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "new@example.com",
		"password": "wrong",
	}, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp = api.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "ghost@example.com",
		"password": "pass123",
	}, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	api := newTestAPI(t)
	api.register("dup@example.com")

	resp := api.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name":     "Other",
		"email":    "dup@example.com",
		"password": "pass123",
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestEventLifecycleRoleGated(t *testing.T) {
	api := newTestAPI(t)
	api.register("admin@example.com", "ADMIN")
	api.register("attendee@example.com")
	admin := api.login("admin@example.com")
	attendee := api.login("attendee@example.com")

	// Attendee cannot create events.
	resp := api.do(http.MethodPost, "/api/events/create", eventBody(), attendee)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	// Admin can.
	resp = api.do(http.MethodPost, "/api/events/create", eventBody(), admin)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc == "" {
		t.Fatal("expected Location header")
	}
	event := decode[map[string]any](t, resp)
	id := event["id"].(float64)

	// Any authenticated caller can read.
	resp = api.do(http.MethodGet, "/api/events", nil, attendee)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	list := decode[[]map[string]any](t, resp)
	if len(list) != 1 {
		t.Fatalf("expected one event, got %d", len(list))
	}

	// Unauthenticated reads are rejected.
	resp = api.do(http.MethodGet, "/api/events", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// Attendee cannot modify; admin can.
	body := eventBody()
	body["name"] = "Go Conference 2026"
	resp = api.do(http.MethodPut, "/api/events/1", body, attendee)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	resp = api.do(http.MethodPut, "/api/events/1", body, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["name"] != "Go Conference 2026" {
		t.Fatalf("unexpected name: %v", updated["name"])
	}
	if updated["id"].(float64) != id {
		t.Fatalf("update changed id: %v", updated["id"])
	}
}

func TestTicketPurchaseIsAttendeeOnly(t *testing.T) {
	api := newTestAPI(t)
	api.register("organizer@example.com", "ORGANIZER")
	api.register("buyer@example.com")
	organizer := api.login("organizer@example.com")
	buyer := api.login("buyer@example.com")

	resp := api.do(http.MethodPost, "/api/events/create", eventBody(), organizer)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	event := decode[map[string]any](t, resp)
	eventID := int64(event["id"].(float64))

	// Organizer holds no ATTENDEE role, so the tickets surface is closed.
	resp = api.do(http.MethodPost, "/api/tickets/purchase", map[string]any{
		"event_id": eventID,
		"quantity": 2,
	}, organizer)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp = api.do(http.MethodPost, "/api/tickets/purchase", map[string]any{
		"event_id": eventID,
		"quantity": 2,
	}, buyer)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	purchase := decode[map[string]any](t, resp)
	if purchase["buyer_email"] != "buyer@example.com" {
		t.Fatalf("unexpected buyer: %v", purchase["buyer_email"])
	}

	// Unknown event is a 404.
	resp = api.do(http.MethodPost, "/api/tickets/purchase", map[string]any{
		"event_id": 999,
	}, buyer)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUserAdministrationRequiresElevatedRole(t *testing.T) {
	api := newTestAPI(t)
	api.register("admin@example.com", "ADMIN")
	attendeeUser := api.register("member@example.com")
	admin := api.login("admin@example.com")
	member := api.login("member@example.com")

	resp := api.do(http.MethodGet, "/api/users", nil, member)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp = api.do(http.MethodGet, "/api/users", nil, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	users := decode[[]map[string]any](t, resp)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	id := int64(attendeeUser["id"].(float64))
	resp = api.do(http.MethodDelete, "/api/users/"+strconv.FormatInt(id, 10), nil, admin)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// The deleted user's still-valid token no longer authenticates.
	resp = api.do(http.MethodGet, "/api/events", nil, member)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after deletion, got %d", resp.StatusCode)
	}
}

func TestAdminStatsIsAdminOnly(t *testing.T) {
	api := newTestAPI(t)
	api.register("admin@example.com", "ADMIN")
	api.register("organizer@example.com", "ORGANIZER")
	admin := api.login("admin@example.com")
	organizer := api.login("organizer@example.com")

	resp := api.do(http.MethodGet, "/api/admin/stats", nil, organizer)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp = api.do(http.MethodGet, "/api/admin/stats", nil, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	stats := decode[map[string]any](t, resp)
	if stats["users"].(float64) != 2 {
		t.Fatalf("unexpected user count: %v", stats["users"])
	}
}

func TestEventCardsFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register("organizer@example.com", "ORGANIZER")
	api.register("viewer@example.com")
	organizer := api.login("organizer@example.com")
	viewer := api.login("viewer@example.com")

	resp := api.do(http.MethodPost, "/api/eventcards", map[string]any{
		"name":      "Go Conference",
		"rating":    4.5,
		"attendees": 120,
		"tags":      []string{"tech", "conference"},
	}, viewer)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp = api.do(http.MethodPost, "/api/eventcards", map[string]any{
		"name":      "Go Conference",
		"rating":    4.5,
		"attendees": 120,
		"tags":      []string{"tech", "conference"},
	}, organizer)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	card := decode[map[string]any](t, resp)
	if card["rating"].(float64) != 4.5 {
		t.Fatalf("unexpected rating: %v", card["rating"])
	}

	resp = api.do(http.MethodGet, "/api/eventcards", nil, viewer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cards := decode[[]map[string]any](t, resp)
	if len(cards) != 1 {
		t.Fatalf("expected one card, got %d", len(cards))
	}
}
