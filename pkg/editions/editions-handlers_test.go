package editions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amicimag/chapterdesk/pkg/auth"
	"github.com/amicimag/chapterdesk/pkg/rest"
	"github.com/sirupsen/logrus"
)

type editionsHarness struct {
	handler    http.Handler
	connection *sql.DB
	repository EditionRepository
	sessions   auth.SessionRepository
}

func newHarness(t *testing.T, folders FolderProvider) editionsHarness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	connection := testConnection(t)

	engine, err := rest.New(rest.Config{Logger: logger})
	if err != nil {
		t.Fatalf("couldn't initialise engine: %v", err)
	}

	repository := NewRepository(connection)
	sessions := auth.NewSessionRepository(connection, time.Hour)
	RegisterHandlers(engine, repository, folders, sessions)

	return editionsHarness{handler: engine.Handler(), connection: connection, repository: repository, sessions: sessions}
}

// login inserts a user with the given role and country, then opens a session.
func (h editionsHarness) login(t *testing.T, username string, role auth.Role, countryId int64) string {
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

func (h editionsHarness) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
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

// brokenFolderProvider stands in for an unreachable document storage service.
type brokenFolderProvider struct{}

func (brokenFolderProvider) CreateEditionFolder(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: connection refused", ErrFolderUnavailable)
}

func TestAddEditionProvisionsFolder(t *testing.T) {

	// a recording provider verifies provisioning happens with the edition's title
	var provisioned []string
	recording := folderProviderFunc(func(_ context.Context, title string) (string, error) {
		provisioned = append(provisioned, title)
		return "folder-123", nil
	})

	harness := newHarness(t, recording)
	italy := addCountry(t, harness.connection, "Italy", "IT")
	token := harness.login(t, "chief", auth.RoleCoordinator, italy)

	response := harness.do(t, http.MethodPost, "/editions", token,
		`{"Title": "Summer 2026", "PublicationDate": "2026-06-15"}`)
	if response.Code != http.StatusCreated {
		t.Fatalf("creation status = %d, want %d: %s", response.Code, http.StatusCreated, response.Body)
	}

	var created Edition
	if err := json.NewDecoder(response.Body).Decode(&created); err != nil {
		t.Fatalf("couldn't decode created edition: %v", err)
	}
	if created.FolderRef != "folder-123" {
		t.Errorf("folder reference = %q, want folder-123", created.FolderRef)
	}
	if created.CountryId != italy {
		t.Errorf("coordinator's edition landed in country %d, want %d", created.CountryId, italy)
	}
	if len(provisioned) != 1 || provisioned[0] != "Summer 2026" {
		t.Errorf("provisioned folders = %v, want the edition title once", provisioned)
	}
}

func TestAddEditionFolderUnavailable(t *testing.T) {

	harness := newHarness(t, brokenFolderProvider{})
	italy := addCountry(t, harness.connection, "Italy", "IT")
	token := harness.login(t, "chief", auth.RoleCoordinator, italy)

	response := harness.do(t, http.MethodPost, "/editions", token,
		`{"Title": "Summer 2026", "PublicationDate": "2026-06-15"}`)
	if response.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", response.Code, http.StatusBadGateway)
	}

	var payload struct{ Code string }
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		t.Fatalf("couldn't decode response: %v", err)
	}
	if payload.Code != "folder_unavailable" {
		t.Errorf("error code = %q, want folder_unavailable", payload.Code)
	}

	// a failed provisioning must leave no edition row behind
	editions, err := harness.repository.GetAll()
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(editions) != 0 {
		t.Errorf("found %d editions after a failed provisioning, want none", len(editions))
	}
}

func TestAddEditionCountryRules(t *testing.T) {

	harness := newHarness(t, NullFolderProvider{})
	addCountry(t, harness.connection, "Italy", "IT")
	adminToken := harness.login(t, "admin", auth.RoleAdmin, 0)
	journalistToken := harness.login(t, "scribe", auth.RoleJournalist, 1)

	// administrators must name a country explicitly
	if response := harness.do(t, http.MethodPost, "/editions", adminToken,
		`{"Title": "Summer", "PublicationDate": "2026-06-15"}`); response.Code != http.StatusBadRequest {
		t.Errorf("countryless admin creation status = %d, want %d", response.Code, http.StatusBadRequest)
	}
	if response := harness.do(t, http.MethodPost, "/editions", adminToken,
		`{"Title": "Summer", "PublicationDate": "2026-06-15", "CountryId": 1}`); response.Code != http.StatusCreated {
		t.Errorf("admin creation status = %d, want %d: %s", response.Code, http.StatusCreated, response.Body)
	}

	// journalists never manage editions
	if response := harness.do(t, http.MethodPost, "/editions", journalistToken,
		`{"Title": "Summer", "PublicationDate": "2026-06-15"}`); response.Code != http.StatusForbidden {
		t.Errorf("journalist creation status = %d, want %d", response.Code, http.StatusForbidden)
	}
}

func TestCountryReassignmentIsAdminOnly(t *testing.T) {

	harness := newHarness(t, NullFolderProvider{})
	italy := addCountry(t, harness.connection, "Italy", "IT")
	france := addCountry(t, harness.connection, "France", "FR")
	adminToken := harness.login(t, "admin", auth.RoleAdmin, 0)
	coordinatorToken := harness.login(t, "chief", auth.RoleCoordinator, italy)

	edition, err := harness.repository.Add(AddEditionData{Title: "Summer", PublicationDate: "2026-06-15"}, italy, "")
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	// the coordinator's attempt to move the edition abroad silently keeps the country
	body := fmt.Sprintf(`{"Title": "Summer", "PublicationDate": "2026-06-15", "Status": "planning", "CountryId": %d}`, france)
	target := fmt.Sprintf("/editions/%d", edition.Id)
	if response := harness.do(t, http.MethodPut, target, coordinatorToken, body); response.Code != http.StatusNoContent {
		t.Fatalf("coordinator update status = %d, want %d", response.Code, http.StatusNoContent)
	}
	if fetched, err := harness.repository.Get(edition.Id); err != nil || fetched.CountryId != italy {
		t.Errorf("country after coordinator update = %d (%v), want %d", fetched.CountryId, err, italy)
	}

	if response := harness.do(t, http.MethodPut, target, adminToken, body); response.Code != http.StatusNoContent {
		t.Fatalf("admin update status = %d, want %d", response.Code, http.StatusNoContent)
	}
	if fetched, err := harness.repository.Get(edition.Id); err != nil || fetched.CountryId != france {
		t.Errorf("country after admin update = %d (%v), want %d", fetched.CountryId, err, france)
	}
}

// folderProviderFunc adapts a function to the FolderProvider interface.
type folderProviderFunc func(ctx context.Context, title string) (string, error)

func (f folderProviderFunc) CreateEditionFolder(ctx context.Context, title string) (string, error) {
	return f(ctx, title)
}
