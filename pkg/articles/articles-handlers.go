package articles

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/amicimag/chapterdesk/pkg/auth"
	JSON "github.com/amicimag/chapterdesk/pkg/json-utilities"
	"github.com/amicimag/chapterdesk/pkg/rest"
	"github.com/amicimag/chapterdesk/pkg/storage/uploads"
)

const maxFormMemory = 32 << 20

func RegisterHandlers(engine *rest.Engine, ar ArticleRepository, sr auth.SessionRepository, store uploads.Storage) {
	engine.Get("/articles", listArticles(ar), auth.Auth(sr))
	engine.Get("/articles/:id", getArticle(ar), auth.Auth(sr))
	engine.Post("/articles", addArticle(ar, store), auth.Auth(sr))
	engine.Put("/articles/:id", editArticle(ar, store), auth.Auth(sr))
	engine.Delete("/articles/:id", deleteArticle(ar, store), auth.Auth(sr))
}

// listArticles returns every article to administrators, the own country's ones to everybody else;
// actors without an assigned country receive an empty list rather than an error.
func listArticles(ar ArticleRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		var articles = make([]Article, 0)
		switch {
		case actor.Role == auth.RoleAdmin:
			articles, err = ar.GetAll()
		case actor.CountryID != 0:
			articles, err = ar.GetByCountry(actor.CountryID)
		}
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Ok(writer, articles)
	}
}

func getArticle(ar ArticleRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		article, err := ar.Get(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if actor.Role != auth.RoleAdmin && actor.CountryID != article.CountryId {
			JSON.Forbidden(writer)
			return
		}

		images, err := ar.Images(id)
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		JSON.Ok(writer, struct {
			Article
			Images []ArticleImage
		}{article, images})
	}
}

func addArticle(ar ArticleRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		if err = request.ParseMultipartForm(maxFormMemory); err != nil {
			JSON.BadRequest(writer)
			return
		}

		var data = ArticleData{
			Title:     request.FormValue("title"),
			Content:   request.FormValue("content"),
			EditionId: formId(request, "editionId"),
			AuthorId:  formId(request, "authorId"),
		}
		if err = data.Validate(); err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		countryId, err := ar.EditionCountry(data.EditionId)
		if errors.Is(err, ErrUnknownEdition) {
			JSON.BadRequestWithMessage(writer, err.Error())
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if !auth.Allowed(actor, auth.ManageArticles, countryId) {
			JSON.Forbidden(writer)
			return
		}

		// only administrators may write on behalf of another author
		var authorId = actor.ID
		if actor.Role == auth.RoleAdmin && data.AuthorId != 0 {
			authorId = data.AuthorId
		}

		article, err := ar.Add(data, authorId)
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if err = saveImages(ar, store, article.Id, 0, request.MultipartForm.File["images"]); err != nil {
			rest.GetLogger(request).WithError(err).Error("saving article images failed")
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.Created(writer, article)
	}
}

func editArticle(ar ArticleRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		article, err := ar.Get(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if !auth.Allowed(actor, auth.ManageArticles, article.CountryId) {
			JSON.Forbidden(writer)
			return
		}

		if err = request.ParseMultipartForm(maxFormMemory); err != nil {
			JSON.BadRequest(writer)
			return
		}

		var data = ArticleData{
			Title:     request.FormValue("title"),
			Content:   request.FormValue("content"),
			EditionId: formId(request, "editionId"),
			AuthorId:  formId(request, "authorId"),
		}
		if err = data.Validate(); err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		// moving the article to another edition must stay within the actor's reach as well
		if data.EditionId != article.EditionId {
			newCountryId, err := ar.EditionCountry(data.EditionId)
			if errors.Is(err, ErrUnknownEdition) {
				JSON.BadRequestWithMessage(writer, err.Error())
				return
			} else if err != nil {
				JSON.InternalServerError(writer, request, err)
				return
			}
			if !auth.Allowed(actor, auth.ManageArticles, newCountryId) {
				JSON.Forbidden(writer)
				return
			}
		}

		var newAuthorId int64
		if actor.Role == auth.RoleAdmin && data.AuthorId != 0 {
			newAuthorId = data.AuthorId
		}

		if err = ar.Update(id, data, newAuthorId); err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		existing, err := ar.CountImages(id)
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if err = saveImages(ar, store, id, existing, request.MultipartForm.File["images"]); err != nil {
			rest.GetLogger(request).WithError(err).Error("saving article images failed")
			JSON.InternalServerError(writer, request, err)
			return
		}
		JSON.NoContent(writer)
	}
}

func deleteArticle(ar ArticleRepository, store uploads.Storage) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		actor, err := auth.GetActor(request)
		if err != nil {
			JSON.Unauthorised(writer)
			return
		}

		id, err := rest.PathId(request, "id")
		if err != nil {
			JSON.BadRequest(writer)
			return
		}

		article, err := ar.Get(id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer)
			return
		} else if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if !auth.Allowed(actor, auth.ManageArticles, article.CountryId) {
			JSON.Forbidden(writer)
			return
		}

		images, err := ar.Images(id)
		if err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		if err = ar.Delete(id); err != nil {
			JSON.InternalServerError(writer, request, err)
			return
		}

		// image rows cascade with the article; the files go separately, best-effort
		for _, image := range images {
			store.RemoveArticleImage(image.Filename)
		}
		JSON.NoContent(writer)
	}
}

// saveImages stores uploaded files until the article holds MaxImages attachments; further files are
// silently ignored. Each file lands on disk before its row, and is removed should the row fail.
func saveImages(ar ArticleRepository, store uploads.Storage, articleId int64, existing int, files []*multipart.FileHeader) error {
	for _, file := range files {
		if existing >= MaxImages {
			break
		}
		relPath, err := store.SaveArticleImage(articleId, file)
		if err != nil {
			return err
		}
		if err = ar.AddImage(articleId, relPath); err != nil {
			store.RemoveArticleImage(relPath)
			return err
		}
		existing++
	}
	return nil
}

func formId(request *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(request.FormValue(name), 10, 64)
	return id
}
