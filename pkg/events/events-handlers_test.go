package events

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amicimag/chapterdesk/pkg/auth"
	"github.com/amicimag/chapterdesk/pkg/rest"
	"github.com/amicimag/chapterdesk/pkg/storage/sqlite"
	"github.com/sirupsen/logrus"
)

type eventsHarness struct {
	handler    http.Handler
	connection *sql.DB
	repository EventRepository
	sessions   auth.SessionRepository
}

func newHarness(t *testing.T) eventsHarness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	storage, err := sqlite.New(logger, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("couldn't initialise test storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })

	engine, err := rest.New(rest.Config{Logger: logger})
	if err != nil {
		t.Fatalf("couldn't initialise engine: %v", err)
	}

	repository := NewRepository(storage.Connection)
	sessions := auth.NewSessionRepository(storage.Connection, time.Hour)
	RegisterHandlers(engine, repository, sessions)

	return eventsHarness{handler: engine.Handler(), connection: storage.Connection, repository: repository, sessions: sessions}
}

func (h eventsHarness) login(t *testing.T, username string, role auth.Role, countryId int64) string {
	t.Helper()

	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("couldn't hash password: %v", err)
	}
	if _, err = h.connection.Exec(`
		INSERT INTO users (username, email, password_hash, role, country_id, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		username, username+"@example.com", hash, role,
		sql.NullInt64{Int64: countryId, Valid: countryId != 0}, time.Now().UTC(),
	); err != nil {
		t.Fatalf("couldn't insert user %q: %v", username, err)
	}

	session, err := h.sessions.Login(auth.LoginData{Username: username, Password: "correct horse"})
	if err != nil {
		t.Fatalf("couldn't login as %q: %v", username, err)
	}
	return session.Token
}

func (h eventsHarness) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, target, reader)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, request)
	return recorder
}

func addCountry(t *testing.T, connection *sql.DB, name, code string) int64 {
	t.Helper()

	result, err := connection.Exec("INSERT INTO countries (name, code) VALUES (?, ?)", name, code)
	if err != nil {
		t.Fatalf("inserting country failed: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("reading country id failed: %v", err)
	}
	return id
}

func TestAddEventGate(t *testing.T) {

	harness := newHarness(t)
	italy := addCountry(t, harness.connection, "Italy", "IT")
	coordinatorToken := harness.login(t, "chief", auth.RoleCoordinator, italy)
	journalistToken := harness.login(t, "scribe", auth.RoleJournalist, italy)

	const event = `{"Title": "Launch party", "Start": "2026-06-15T18:00:00Z", "Location": "Rome"}`

	if response := harness.do(t, http.MethodPost, "/events", journalistToken, event); response.Code != http.StatusForbidden {
		t.Errorf("journalist creation status = %d, want %d", response.Code, http.StatusForbidden)
	}

	response := harness.do(t, http.MethodPost, "/events", coordinatorToken, event)
	if response.Code != http.StatusCreated {
		t.Fatalf("coordinator creation status = %d, want %d: %s", response.Code, http.StatusCreated, response.Body)
	}

	events, err := harness.repository.GetByCountry(italy)
	if err != nil {
		t.Fatalf("GetByCountry() failed: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Launch party" {
		t.Errorf("stored events = %+v, want the launch party", events)
	}
	if events[0].End != nil {
		t.Error("open ended event carries an end time")
	}
}

func TestAddEventValidationCode(t *testing.T) {

	harness := newHarness(t)
	italy := addCountry(t, harness.connection, "Italy", "IT")
	token := harness.login(t, "chief", auth.RoleCoordinator, italy)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"Start": "2026-06-15T18:00:00Z"}`},
		{"malformed start", `{"Title": "Party", "Start": "tomorrow evening"}`},
		{"malformed end", `{"Title": "Party", "Start": "2026-06-15T18:00:00Z", "End": "late"}`},
		{"not json", `title=Party`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := harness.do(t, http.MethodPost, "/events", token, tt.body)
			if response.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", response.Code, http.StatusBadRequest)
			}

			// clients receive a fixed code, never the underlying validation detail
			var payload struct{ Code string }
			if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
				t.Fatalf("couldn't decode response: %v", err)
			}
			if payload.Code != "invalid_event" {
				t.Errorf("error code = %q, want invalid_event", payload.Code)
			}
		})
	}
}

func TestListEventsScoping(t *testing.T) {

	harness := newHarness(t)
	italy := addCountry(t, harness.connection, "Italy", "IT")
	france := addCountry(t, harness.connection, "France", "FR")

	adminToken := harness.login(t, "admin", auth.RoleAdmin, 0)
	italianToken := harness.login(t, "chief", auth.RoleCoordinator, italy)
	strayToken := harness.login(t, "stray", auth.RoleJournalist, 0)

	// the admin's user id serves as creator for the directly inserted rows
	if _, err := harness.repository.Add(AddEventData{Title: "Rome", Start: "2026-06-15T18:00:00Z"}, italy, 1); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if _, err := harness.repository.Add(AddEventData{Title: "Paris", Start: "2026-07-15T18:00:00Z"}, france, 1); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	listed := func(token string) []Event {
		response := harness.do(t, http.MethodGet, "/events", token, "")
		if response.Code != http.StatusOK {
			t.Fatalf("listing status = %d, want %d", response.Code, http.StatusOK)
		}
		var events []Event
		if err := json.NewDecoder(response.Body).Decode(&events); err != nil {
			t.Fatalf("couldn't decode listing: %v", err)
		}
		return events
	}

	if all := listed(adminToken); len(all) != 2 {
		t.Errorf("admin sees %d events, want 2", len(all))
	}
	if italian := listed(italianToken); len(italian) != 1 || italian[0].Title != "Rome" {
		t.Errorf("italian coordinator sees %+v, want the single Roman event", italian)
	}
	if stray := listed(strayToken); len(stray) != 0 {
		t.Errorf("countryless journalist sees %d events, want none", len(stray))
	}
}
