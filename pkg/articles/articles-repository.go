package articles

import (
	"database/sql"
	"errors"
	"time"
)

type ArticleRepository interface {
	GetAll() ([]Article, error)
	GetByCountry(countryId int64) ([]Article, error)
	Get(id int64) (Article, error)
	EditionCountry(editionId int64) (int64, error)
	Add(data ArticleData, authorId int64) (Article, error)
	Update(id int64, data ArticleData, newAuthorId int64) error
	Delete(id int64) error
	Images(articleId int64) ([]ArticleImage, error)
	CountImages(articleId int64) (int, error)
	AddImage(articleId int64, filename string) error
}

var (
	ErrNotFound       = errors.New("article not found")
	ErrUnknownEdition = errors.New("edition not found")
)

type articleRepository struct {
	Connection *sql.DB
}

func NewRepository(connection *sql.DB) ArticleRepository {
	return &articleRepository{connection}
}

const articleSelect = `
	SELECT articles.id, articles.title, articles.content, articles.deadline, articles.status,
		articles.author_id, articles.edition_id, editions.country_id
	FROM articles JOIN editions ON articles.edition_id = editions.id`

func (ar *articleRepository) GetAll() ([]Article, error) {
	return ar.query(articleSelect + " ORDER BY articles.id DESC")
}

func (ar *articleRepository) GetByCountry(countryId int64) ([]Article, error) {
	return ar.query(articleSelect+" WHERE editions.country_id = ? ORDER BY articles.id DESC", countryId)
}

func (ar *articleRepository) query(statement string, args ...any) (articles []Article, err error) {

	articles = make([]Article, 0)

	rows, err := ar.Connection.Query(statement, args...)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var article Article
		if err = rows.Scan(
			&article.Id, &article.Title, &article.Content, &article.Deadline, &article.Status,
			&article.AuthorId, &article.EditionId, &article.CountryId,
		); err != nil {
			return articles, err
		}
		articles = append(articles, article)
	}

	if err = rows.Err(); err != nil {
		return articles, err
	}
	return articles, rows.Close()
}

func (ar *articleRepository) Get(id int64) (article Article, err error) {
	err = ar.Connection.QueryRow(articleSelect+" WHERE articles.id = ?", id).Scan(
		&article.Id, &article.Title, &article.Content, &article.Deadline, &article.Status,
		&article.AuthorId, &article.EditionId, &article.CountryId,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return article, ErrNotFound
	}
	return article, err
}

// EditionCountry resolves the country owning the given edition, to feed the authorization gate.
func (ar *articleRepository) EditionCountry(editionId int64) (countryId int64, err error) {
	err = ar.Connection.QueryRow("SELECT country_id FROM editions WHERE id = ?", editionId).Scan(&countryId)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnknownEdition
	}
	return countryId, err
}

func (ar *articleRepository) Add(data ArticleData, authorId int64) (article Article, err error) {

	// articles created without an explicit deadline default to their creation time, as the legacy system did
	var now = time.Now().UTC()
	result, err := ar.Connection.Exec(`
		INSERT INTO articles (title, content, deadline, status, author_id, edition_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		data.Title, data.Content, now, StatusDraft, authorId, data.EditionId,
	)
	if err != nil {
		return article, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return article, err
	}

	return Article{
		Id:        id,
		Title:     data.Title,
		Content:   data.Content,
		Deadline:  now,
		Status:    StatusDraft,
		AuthorId:  authorId,
		EditionId: data.EditionId,
	}, nil
}

// Update rewrites title, content and edition; a zero newAuthorId keeps the current author.
func (ar *articleRepository) Update(id int64, data ArticleData, newAuthorId int64) error {

	result, err := ar.Connection.Exec(`
		UPDATE articles
		SET title = ?, content = ?, edition_id = ?,
			author_id = CASE WHEN ? > 0 THEN ? ELSE author_id END
		WHERE id = ?`,
		data.Title, data.Content, data.EditionId, newAuthorId, newAuthorId, id,
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

// Delete removes the article; its image rows cascade with it. Files are the handler's concern.
func (ar *articleRepository) Delete(id int64) error {

	result, err := ar.Connection.Exec("DELETE FROM articles WHERE id = ?", id)
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

func (ar *articleRepository) Images(articleId int64) (images []ArticleImage, err error) {

	images = make([]ArticleImage, 0)

	rows, err := ar.Connection.Query(
		"SELECT id, filename, uploaded FROM article_images WHERE article_id = ? ORDER BY id", articleId,
	)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var image ArticleImage
		if err = rows.Scan(&image.Id, &image.Filename, &image.Uploaded); err != nil {
			return images, err
		}
		images = append(images, image)
	}

	if err = rows.Err(); err != nil {
		return images, err
	}
	return images, rows.Close()
}

func (ar *articleRepository) CountImages(articleId int64) (count int, err error) {
	err = ar.Connection.QueryRow(
		"SELECT COUNT(*) FROM article_images WHERE article_id = ?", articleId,
	).Scan(&count)
	return count, err
}

func (ar *articleRepository) AddImage(articleId int64, filename string) error {
	_, err := ar.Connection.Exec(
		"INSERT INTO article_images (article_id, filename, uploaded) VALUES (?, ?, ?)",
		articleId, filename, time.Now().UTC(),
	)
	return err
}
