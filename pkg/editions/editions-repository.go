package editions

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

type EditionRepository interface {
	GetAll() ([]Edition, error)
	GetByCountry(countryId int64) ([]Edition, error)
	Get(id int64) (Edition, error)
	Add(data AddEditionData, countryId int64, folderRef string) (Edition, error)
	Update(id int64, data EditEditionData, newCountryId int64) error
	Delete(id int64) error
	AssignArticle(editionId int64, data AssignArticleData) (int64, error)
}

var (
	ErrNotFound      = errors.New("edition not found")
	ErrHasArticles   = errors.New("edition still has assigned articles")
	ErrUnknownAuthor = errors.New("author not found")
)

type editionRepository struct {
	Connection *sql.DB
}

func NewRepository(connection *sql.DB) EditionRepository {
	return &editionRepository{connection}
}

const editionColumns = "id, title, publication_date, folder_ref, status, country_id, created"

func (er *editionRepository) GetAll() ([]Edition, error) {
	return er.query("SELECT " + editionColumns + " FROM editions ORDER BY publication_date DESC")
}

func (er *editionRepository) GetByCountry(countryId int64) ([]Edition, error) {
	return er.query(
		"SELECT "+editionColumns+" FROM editions WHERE country_id = ? ORDER BY publication_date DESC",
		countryId,
	)
}

func (er *editionRepository) query(statement string, args ...any) (editions []Edition, err error) {

	editions = make([]Edition, 0)

	rows, err := er.Connection.Query(statement, args...)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var edition Edition
		var folderRef sql.NullString
		if err = rows.Scan(
			&edition.Id, &edition.Title, &edition.PublicationDate, &folderRef,
			&edition.Status, &edition.CountryId, &edition.Created,
		); err != nil {
			return editions, err
		}
		edition.FolderRef = folderRef.String
		editions = append(editions, edition)
	}

	if err = rows.Err(); err != nil {
		return editions, err
	}
	return editions, rows.Close()
}

func (er *editionRepository) Get(id int64) (edition Edition, err error) {
	var folderRef sql.NullString
	err = er.Connection.QueryRow("SELECT "+editionColumns+" FROM editions WHERE id = ?", id).Scan(
		&edition.Id, &edition.Title, &edition.PublicationDate, &folderRef,
		&edition.Status, &edition.CountryId, &edition.Created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return edition, ErrNotFound
	}
	edition.FolderRef = folderRef.String
	return edition, err
}

func (er *editionRepository) Add(data AddEditionData, countryId int64, folderRef string) (edition Edition, err error) {

	publicationDate, err := time.Parse(dateFormat, data.PublicationDate)
	if err != nil {
		return edition, err
	}

	var now = time.Now().UTC()
	result, err := er.Connection.Exec(`
		INSERT INTO editions (title, publication_date, folder_ref, status, country_id, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		data.Title, publicationDate, folderRef, StatusPlanning, countryId, now,
	)
	if err != nil {
		return edition, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return edition, err
	}

	return Edition{
		Id:              id,
		Title:           data.Title,
		PublicationDate: publicationDate,
		FolderRef:       folderRef,
		Status:          StatusPlanning,
		CountryId:       countryId,
		Created:         now,
	}, nil
}

// Update rewrites the edition's mutable fields; a zero newCountryId leaves the country untouched.
func (er *editionRepository) Update(id int64, data EditEditionData, newCountryId int64) error {

	publicationDate, err := time.Parse(dateFormat, data.PublicationDate)
	if err != nil {
		return err
	}

	result, err := er.Connection.Exec(`
		UPDATE editions
		SET title = ?, publication_date = ?, status = ?,
			country_id = CASE WHEN ? > 0 THEN ? ELSE country_id END
		WHERE id = ?`,
		data.Title, publicationDate, data.Status, newCountryId, newCountryId, id,
	)
	if err != nil {
		return err
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete refuses to remove an edition while articles reference it.
func (er *editionRepository) Delete(id int64) error {

	var hasArticles bool
	if err := er.Connection.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM articles WHERE edition_id = ?)", id,
	).Scan(&hasArticles); err != nil {
		return err
	}
	if hasArticles {
		return ErrHasArticles
	}

	result, err := er.Connection.Exec("DELETE FROM editions WHERE id = ?", id)
	if err != nil {
		return err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignArticle creates an article bound to the edition, in `assigned` status.
func (er *editionRepository) AssignArticle(editionId int64, data AssignArticleData) (int64, error) {

	deadline, err := time.Parse(dateFormat, data.Deadline)
	if err != nil {
		return 0, err
	}

	result, err := er.Connection.Exec(`
		INSERT INTO articles (title, content, deadline, status, author_id, edition_id)
		VALUES (?, ?, ?, 'assigned', ?, ?)`,
		data.Title, data.Content, deadline, data.AuthorId, editionId,
	)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return 0, ErrUnknownAuthor
	}
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
