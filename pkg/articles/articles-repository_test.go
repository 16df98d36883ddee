package articles

import (
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/amicimag/chapterdesk/pkg/storage/sqlite"
	"github.com/sirupsen/logrus"
)

func testConnection(t *testing.T) *sql.DB {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	storage, err := sqlite.New(logger, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("couldn't initialise test storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage.Connection
}

// seedEdition inserts a country, an author and an edition, returning the author and edition ids.
func seedEdition(t *testing.T, connection *sql.DB, countryName, countryCode string) (authorId, editionId int64) {
	t.Helper()

	var now = time.Now().UTC()
	country, err := connection.Exec("INSERT INTO countries (name, code) VALUES (?, ?)", countryName, countryCode)
	if err != nil {
		t.Fatalf("inserting country failed: %v", err)
	}
	countryId, err := country.LastInsertId()
	if err != nil {
		t.Fatalf("reading country id failed: %v", err)
	}

	author, err := connection.Exec(`
		INSERT INTO users (username, email, password_hash, role, country_id, created)
		VALUES (?, ?, 'hash', 'journalist', ?, ?)`,
		"author-"+countryCode, "author-"+countryCode+"@example.com", countryId, now,
	)
	if err != nil {
		t.Fatalf("inserting author failed: %v", err)
	}
	if authorId, err = author.LastInsertId(); err != nil {
		t.Fatalf("reading author id failed: %v", err)
	}

	edition, err := connection.Exec(
		"INSERT INTO editions (title, publication_date, country_id, created) VALUES (?, ?, ?, ?)",
		"Edition "+countryCode, now, countryId, now,
	)
	if err != nil {
		t.Fatalf("inserting edition failed: %v", err)
	}
	if editionId, err = edition.LastInsertId(); err != nil {
		t.Fatalf("reading edition id failed: %v", err)
	}
	return authorId, editionId
}

func TestAddAndGetArticle(t *testing.T) {

	connection := testConnection(t)
	repository := NewRepository(connection)
	author, edition := seedEdition(t, connection, "Italy", "IT")

	added, err := repository.Add(ArticleData{Title: "Piece", Content: "Text", EditionId: edition}, author)
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if added.Status != StatusDraft {
		t.Errorf("fresh article status = %q, want %q", added.Status, StatusDraft)
	}
	if added.Deadline.IsZero() {
		t.Error("articles without an explicit deadline must default to their creation time")
	}

	fetched, err := repository.Get(added.Id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if fetched.AuthorId != author || fetched.EditionId != edition {
		t.Errorf("fetched article %+v doesn't match the added one", fetched)
	}
	if fetched.CountryId == 0 {
		t.Error("fetched article misses the owning edition's country")
	}
}

func TestGetByCountry(t *testing.T) {

	connection := testConnection(t)
	repository := NewRepository(connection)
	italianAuthor, italianEdition := seedEdition(t, connection, "Italy", "IT")
	frenchAuthor, frenchEdition := seedEdition(t, connection, "France", "FR")

	if _, err := repository.Add(ArticleData{Title: "Rome", Content: "Text", EditionId: italianEdition}, italianAuthor); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if _, err := repository.Add(ArticleData{Title: "Paris", Content: "Text", EditionId: frenchEdition}, frenchAuthor); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	all, err := repository.GetAll()
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("GetAll() returned %d articles, want 2", len(all))
	}

	italian, err := repository.GetByCountry(all[0].CountryId)
	if err != nil {
		t.Fatalf("GetByCountry() failed: %v", err)
	}
	if len(italian) != 1 {
		t.Errorf("GetByCountry() returned %d articles, want 1", len(italian))
	}
}

func TestEditionCountry(t *testing.T) {

	connection := testConnection(t)
	repository := NewRepository(connection)
	_, edition := seedEdition(t, connection, "Italy", "IT")

	countryId, err := repository.EditionCountry(edition)
	if err != nil || countryId == 0 {
		t.Errorf("EditionCountry() = (%d, %v), want the owning country", countryId, err)
	}

	if _, err = repository.EditionCountry(edition + 99); !errors.Is(err, ErrUnknownEdition) {
		t.Errorf("unknown edition error = %v, want %v", err, ErrUnknownEdition)
	}
}

func TestImages(t *testing.T) {

	connection := testConnection(t)
	repository := NewRepository(connection)
	author, edition := seedEdition(t, connection, "Italy", "IT")

	added, err := repository.Add(ArticleData{Title: "Piece", Content: "Text", EditionId: edition}, author)
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	if err = repository.AddImage(added.Id, "2026/6/1_1750000000_cover.png"); err != nil {
		t.Fatalf("AddImage() failed: %v", err)
	}
	if err = repository.AddImage(added.Id, "2026/6/1_1750000001_detail.png"); err != nil {
		t.Fatalf("AddImage() failed: %v", err)
	}

	count, err := repository.CountImages(added.Id)
	if err != nil || count != 2 {
		t.Errorf("CountImages() = (%d, %v), want 2", count, err)
	}

	images, err := repository.Images(added.Id)
	if err != nil {
		t.Fatalf("Images() failed: %v", err)
	}
	if len(images) != 2 || images[0].Filename != "2026/6/1_1750000000_cover.png" {
		t.Errorf("Images() returned %+v", images)
	}

	// image rows must cascade with their article
	if err = repository.Delete(added.Id); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if count, err = repository.CountImages(added.Id); err != nil || count != 0 {
		t.Errorf("images after article deletion = (%d, %v), want none", count, err)
	}
}
