package uploads

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testStorage(t *testing.T) Storage {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	root := t.TempDir()
	storage, err := New(logger, Folders{
		Articles:  filepath.Join(root, "articles"),
		Manuals:   filepath.Join(root, "manuals"),
		Embassies: filepath.Join(root, "embassies"),
		Users:     filepath.Join(root, "users"),
	})
	if err != nil {
		t.Fatalf("couldn't initialise uploads store: %v", err)
	}
	return storage
}

// fileHeader builds a multipart file header the way an HTTP upload would produce one.
func fileHeader(t *testing.T, filename, contents string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("couldn't create form file: %v", err)
	}
	if _, err = part.Write([]byte(contents)); err != nil {
		t.Fatalf("couldn't write form file: %v", err)
	}
	if err = writer.Close(); err != nil {
		t.Fatalf("couldn't close multipart writer: %v", err)
	}

	request, err := http.NewRequest(http.MethodPost, "/", &body)
	if err != nil {
		t.Fatalf("couldn't build request: %v", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	if err = request.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("couldn't parse multipart form: %v", err)
	}
	return request.MultipartForm.File["file"][0]
}

func TestSanitiseName(t *testing.T) {

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "photo.jpg", "photo.jpg"},
		{"spaces become underscores", "my photo.jpg", "my_photo.jpg"},
		{"path traversal stripped", "../../etc/passwd", "passwd"},
		{"windows separators stripped", `C:\temp\virus.exe`, "virus.exe"},
		{"unsafe characters collapsed", "piñata?*.png", "pi_ata_.png"},
		{"leading dots trimmed", "..hidden", "hidden"},
		{"empty name falls back", "", "file"},
		{"dots only falls back", "...", "file"},
		{"accepted characters survive", "report_2025-06.v2.pdf", "report_2025-06.v2.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitiseName(tt.in); got != tt.want {
				t.Errorf("SanitiseName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

var stampedPattern = regexp.MustCompile(`^\d+_photo\.jpg$`)

func TestSaveUserPhoto(t *testing.T) {

	storage := testStorage(t)
	name, err := storage.SaveUserPhoto(fileHeader(t, "photo.jpg", "fake image bytes"))
	if err != nil {
		t.Fatalf("SaveUserPhoto() failed: %v", err)
	}
	if !stampedPattern.MatchString(name) {
		t.Errorf("stored name %q doesn't match the timestamped convention", name)
	}

	contents, err := os.ReadFile(filepath.Join(storage.folders.Users, name))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(contents) != "fake image bytes" {
		t.Error("stored contents differ from the upload")
	}
}

func TestSaveArticleImage(t *testing.T) {

	storage := testStorage(t)
	relPath, err := storage.SaveArticleImage(42, fileHeader(t, "cover photo.png", "png bytes"))
	if err != nil {
		t.Fatalf("SaveArticleImage() failed: %v", err)
	}

	// images nest under year/month, carry the article id and keep forward slashes
	now := time.Now().UTC()
	wantPrefix := fmt.Sprintf("%d/%d/42_", now.Year(), int(now.Month()))
	if !regexp.MustCompile("^" + regexp.QuoteMeta(wantPrefix) + `\d+_cover_photo\.png$`).MatchString(relPath) {
		t.Errorf("stored path %q doesn't match %q + timestamped name", relPath, wantPrefix)
	}

	if _, err = os.Stat(filepath.Join(storage.folders.Articles, filepath.FromSlash(relPath))); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
}

func TestRemoveArticleImage(t *testing.T) {

	storage := testStorage(t)
	relPath, err := storage.SaveArticleImage(7, fileHeader(t, "cover.png", "png bytes"))
	if err != nil {
		t.Fatalf("SaveArticleImage() failed: %v", err)
	}

	storage.RemoveArticleImage(relPath)
	if _, err = os.Stat(filepath.Join(storage.folders.Articles, filepath.FromSlash(relPath))); !os.IsNotExist(err) {
		t.Error("image file survived removal")
	}

	// removing twice must not panic nor log a failure for a missing file
	storage.RemoveArticleImage(relPath)
	storage.RemoveUserPhoto("")
}

func TestManualPath(t *testing.T) {

	storage := testStorage(t)

	// stored names never contain separators, but the resolver must not honour any that sneak in
	got := storage.ManualPath("../../secrets.pdf")
	if want := filepath.Join(storage.folders.Manuals, "secrets.pdf"); got != want {
		t.Errorf("ManualPath() = %q, want %q", got, want)
	}
}
