package editions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrFolderUnavailable masks every provider failure; the underlying cause belongs in the logs, not in responses.
var ErrFolderUnavailable = errors.New("document folder provider unavailable")

// FolderProvider provisions an external document folder for a freshly created edition.
// The returned reference is opaque and persisted verbatim on the edition row.
type FolderProvider interface {
	CreateEditionFolder(ctx context.Context, title string) (string, error)
}

// HTTPFolderProvider talks to the document storage service over plain JSON.
type HTTPFolderProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPFolderProvider(baseURL string, timeout time.Duration) *HTTPFolderProvider {
	return &HTTPFolderProvider{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (p *HTTPFolderProvider) CreateEditionFolder(ctx context.Context, title string) (string, error) {

	body, err := json.Marshal(struct{ Name string }{title})
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/folders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := p.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFolderUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrFolderUnavailable, response.StatusCode)
	}

	var folder struct{ Id string }
	if err = json.NewDecoder(response.Body).Decode(&folder); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFolderUnavailable, err)
	}
	return folder.Id, nil
}

// NullFolderProvider skips provisioning altogether; editions end up without a folder reference.
// Useful for local development, when no document storage service is around.
type NullFolderProvider struct{}

func (NullFolderProvider) CreateEditionFolder(context.Context, string) (string, error) {
	return "", nil
}
