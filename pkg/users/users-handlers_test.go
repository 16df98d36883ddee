package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/amicimag/chapterdesk/pkg/auth"
	"github.com/amicimag/chapterdesk/pkg/rest"
	"github.com/amicimag/chapterdesk/pkg/storage/uploads"
	"github.com/sirupsen/logrus"
)

type usersHarness struct {
	handler    http.Handler
	repository UserRepository
	sessions   auth.SessionRepository
}

func newHarness(t *testing.T) usersHarness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	connection := testConnection(t)

	root := t.TempDir()
	store, err := uploads.New(logger, uploads.Folders{
		Articles:  filepath.Join(root, "articles"),
		Manuals:   filepath.Join(root, "manuals"),
		Embassies: filepath.Join(root, "embassies"),
		Users:     filepath.Join(root, "users"),
	})
	if err != nil {
		t.Fatalf("couldn't initialise uploads store: %v", err)
	}

	engine, err := rest.New(rest.Config{Logger: logger})
	if err != nil {
		t.Fatalf("couldn't initialise engine: %v", err)
	}

	repository := NewRepository(connection)
	sessions := auth.NewSessionRepository(connection, time.Hour)
	RegisterHandlers(engine, repository, sessions, store)

	return usersHarness{handler: engine.Handler(), repository: repository, sessions: sessions}
}

// login creates the user and opens a session, returning both.
func (h usersHarness) login(t *testing.T, username string, role auth.Role) (User, string) {
	t.Helper()

	user, err := h.repository.Add(AddUserData{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse",
		Role:     role,
	}, "")
	if err != nil {
		t.Fatalf("couldn't add user %q: %v", username, err)
	}

	session, err := h.sessions.Login(auth.LoginData{Username: username, Password: "correct horse"})
	if err != nil {
		t.Fatalf("couldn't login as %q: %v", username, err)
	}
	return user, session.Token
}

// userForm builds a multipart request body from plain fields, as the web client submits them.
func userForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("couldn't write form field %q: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("couldn't close form writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func (h usersHarness) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(method, target, body)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, request)
	return recorder
}

func TestListUsersAccess(t *testing.T) {

	harness := newHarness(t)
	_, adminToken := harness.login(t, "admin", auth.RoleAdmin)
	_, journalistToken := harness.login(t, "scribe", auth.RoleJournalist)

	if response := harness.do(t, http.MethodGet, "/users", "", nil, ""); response.Code != http.StatusUnauthorized {
		t.Errorf("anonymous listing status = %d, want %d", response.Code, http.StatusUnauthorized)
	}
	if response := harness.do(t, http.MethodGet, "/users", journalistToken, nil, ""); response.Code != http.StatusForbidden {
		t.Errorf("journalist listing status = %d, want %d", response.Code, http.StatusForbidden)
	}

	response := harness.do(t, http.MethodGet, "/users", adminToken, nil, "")
	if response.Code != http.StatusOK {
		t.Fatalf("admin listing status = %d, want %d", response.Code, http.StatusOK)
	}

	var listed []User
	if err := json.NewDecoder(response.Body).Decode(&listed); err != nil {
		t.Fatalf("couldn't decode listing: %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("listed %d users, want 2", len(listed))
	}
}

func TestAddUser(t *testing.T) {

	harness := newHarness(t)
	_, adminToken := harness.login(t, "admin", auth.RoleAdmin)

	body, contentType := userForm(t, map[string]string{
		"username": "newcomer",
		"email":    "newcomer@example.com",
		"password": "long enough secret",
		"role":     "designer",
	})
	response := harness.do(t, http.MethodPost, "/users", adminToken, body, contentType)
	if response.Code != http.StatusCreated {
		t.Fatalf("creation status = %d, want %d: %s", response.Code, http.StatusCreated, response.Body)
	}

	var created User
	if err := json.NewDecoder(response.Body).Decode(&created); err != nil {
		t.Fatalf("couldn't decode created user: %v", err)
	}
	if created.Role != auth.RoleDesigner {
		t.Errorf("created role = %q, want %q", created.Role, auth.RoleDesigner)
	}

	// the same username again must trade a conflict, not a fresh row
	body, contentType = userForm(t, map[string]string{
		"username": "newcomer",
		"email":    "elsewhere@example.com",
		"password": "long enough secret",
		"role":     "designer",
	})
	if response = harness.do(t, http.MethodPost, "/users", adminToken, body, contentType); response.Code != http.StatusConflict {
		t.Errorf("duplicate username status = %d, want %d", response.Code, http.StatusConflict)
	}
}

func TestAddUserValidation(t *testing.T) {

	harness := newHarness(t)
	_, adminToken := harness.login(t, "admin", auth.RoleAdmin)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"short password", map[string]string{
			"username": "newcomer", "email": "n@example.com", "password": "short", "role": "designer",
		}},
		{"bad email", map[string]string{
			"username": "newcomer", "email": "not-an-email", "password": "long enough secret", "role": "designer",
		}},
		{"unknown role", map[string]string{
			"username": "newcomer", "email": "n@example.com", "password": "long enough secret", "role": "fixer",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := userForm(t, tt.fields)
			response := harness.do(t, http.MethodPost, "/users", adminToken, body, contentType)
			if response.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", response.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDeleteOwnAccount(t *testing.T) {

	harness := newHarness(t)
	admin, adminToken := harness.login(t, "admin", auth.RoleAdmin)
	other, _ := harness.login(t, "other", auth.RoleDesigner)

	target := fmt.Sprintf("/users/%d", admin.Id)
	if response := harness.do(t, http.MethodDelete, target, adminToken, nil, ""); response.Code != http.StatusConflict {
		t.Errorf("self deletion status = %d, want %d", response.Code, http.StatusConflict)
	}

	target = fmt.Sprintf("/users/%d", other.Id)
	if response := harness.do(t, http.MethodDelete, target, adminToken, nil, ""); response.Code != http.StatusNoContent {
		t.Errorf("deletion status = %d, want %d", response.Code, http.StatusNoContent)
	}
}
