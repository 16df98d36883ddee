// Package uploads stores the files attached to rows: article images, manual PDFs, embassy and profile photos.
// Names follow the `{unix-timestamp}_{sanitised-original-name}` convention to avoid collisions; article images
// additionally carry the owning row's id and nest under year/month folders.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Folders lists the root directories of the four upload categories.
type Folders struct {
	Articles  string
	Manuals   string
	Embassies string
	Users     string
}

type Storage struct {
	logger  *logrus.Logger
	folders Folders
}

func New(logger *logrus.Logger, folders Folders) (storage Storage, err error) {
	logger.Println("initialising uploads store")

	for _, folder := range []string{folders.Articles, folders.Manuals, folders.Embassies, folders.Users} {
		if err = os.MkdirAll(folder, 0750); err != nil {
			return storage, err
		}
	}

	return Storage{logger: logger, folders: folders}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitiseName strips directories and unsafe characters from a client supplied file name.
func SanitiseName(name string) string {
	// uploaded names may carry Windows style separators, which filepath.Base won't strip on other platforms
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

func stampedName(original string) string {
	return fmt.Sprintf("%d_%s", time.Now().UTC().Unix(), SanitiseName(original))
}

// SaveUserPhoto stores a profile photo and returns its stored name.
func (s Storage) SaveUserPhoto(file *multipart.FileHeader) (string, error) {
	var name = stampedName(file.Filename)
	return name, save(file, filepath.Join(s.folders.Users, name))
}

// SaveEmbassyPhoto stores an embassy member's photo and returns its stored name.
func (s Storage) SaveEmbassyPhoto(file *multipart.FileHeader) (string, error) {
	var name = stampedName(file.Filename)
	return name, save(file, filepath.Join(s.folders.Embassies, name))
}

// SaveManual stores a manual's PDF and returns its stored name. Suffix checks belong to the caller.
func (s Storage) SaveManual(file *multipart.FileHeader) (string, error) {
	var name = stampedName(file.Filename)
	return name, save(file, filepath.Join(s.folders.Manuals, name))
}

// SaveArticleImage stores an article image beneath a year/month folder and returns its path relative
// to the articles root, with forward slashes, fit for both database rows and URLs.
func (s Storage) SaveArticleImage(articleID int64, file *multipart.FileHeader) (string, error) {

	var now = time.Now().UTC()
	var folder = filepath.Join(s.folders.Articles, strconv.Itoa(now.Year()), strconv.Itoa(int(now.Month())))
	if err := os.MkdirAll(folder, 0750); err != nil {
		return "", err
	}

	var name = fmt.Sprintf("%d_%d_%s", articleID, now.Unix(), SanitiseName(file.Filename))
	if err := save(file, filepath.Join(folder, name)); err != nil {
		return "", err
	}
	return path.Join(strconv.Itoa(now.Year()), strconv.Itoa(int(now.Month())), name), nil
}

func (s Storage) RemoveUserPhoto(name string)      { s.remove(s.folders.Users, name) }
func (s Storage) RemoveEmbassyPhoto(name string)   { s.remove(s.folders.Embassies, name) }
func (s Storage) RemoveManual(name string)         { s.remove(s.folders.Manuals, name) }
func (s Storage) RemoveArticleImage(relPath string) {
	s.remove(s.folders.Articles, filepath.FromSlash(relPath))
}

// ManualPath resolves a stored manual name to its absolute location, for file serving.
func (s Storage) ManualPath(name string) string {
	return filepath.Join(s.folders.Manuals, filepath.Base(name))
}

// remove deletes a stored file; failures are logged and otherwise swallowed, cleanup being best-effort.
func (s Storage) remove(folder, name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(folder, name)); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).Warnf("couldn't remove uploaded file %q", name)
	}
}

func save(file *multipart.FileHeader, destination string) error {

	source, err := file.Open()
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := os.Create(destination)
	if err != nil {
		return err
	}

	if _, err = io.Copy(target, source); err != nil {
		_ = target.Close()
		return err
	}
	return target.Close()
}
