package adminhandlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"arabic-chatbot.app/internal/handlers"
	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/remote"
	"arabic-chatbot.app/internal/session"
	"arabic-chatbot.app/internal/validation"
)

const documentsPath = "/admin/documents"

type ContentAPI interface {
	ListDocuments(ctx context.Context, token string) ([]models.Document, error)
	BuildRAG(ctx context.Context, token, filename string, file io.Reader) (string, error)
	AddVideo(ctx context.Context, token, link, description string) error
	DeleteDocument(ctx context.Context, token, documentID string) error
}

// DocumentsPageHandler lists the knowledge base documents with the upload and
// video forms.
func DocumentsPageHandler(app *handlers.AppHandlers, api ContentAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())
		data := app.NewPageData(r)
		data.PageTitle = "Documents"

		docs, err := api.ListDocuments(r.Context(), sess.Token)
		if err != nil {
			slog.Error("Listing documents failed", sl.Err(err))
			data.DocumentsError = "Could not load documents: " + remote.Message(err)
		}
		data.Documents = docs
		app.RenderPage(w, r, "admin_documents.html", data)
	}
}

// UploadDocumentHandler forwards one .docx file to the index builder.
func UploadDocumentHandler(app *handlers.AppHandlers, api ContentAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())
		ctx := r.Context()
		maxBytes := app.Config.MaxDocumentBytes()

		fail := func(msg string) {
			app.Sessions.PutForm(ctx, url.Values{"file": {msg}}, url.Values{})
			http.Redirect(w, r, documentsPath, http.StatusSeeOther)
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				fail("The file is too large.")
				return
			}
			fail("Please choose a file to upload.")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			fail("Please choose a file to upload.")
			return
		}
		defer file.Close()

		if !strings.EqualFold(filepath.Ext(header.Filename), ".docx") {
			fail("Please upload a .docx file")
			return
		}
		if header.Size > maxBytes {
			fail("The file is too large.")
			return
		}

		msg, err := api.BuildRAG(ctx, sess.Token, filepath.Base(header.Filename), file)
		if err != nil {
			slog.Error("Document upload failed", "filename", header.Filename, sl.Err(err))
			fail("Upload failed: " + remote.Message(err))
			return
		}

		slog.Info("Document uploaded", "filename", header.Filename, "size", header.Size, "user_id", sess.UserID)
		if msg == "" {
			msg = "Document uploaded and index rebuilt."
		}
		app.Sessions.FlashSuccess(ctx, msg)
		http.Redirect(w, r, documentsPath, http.StatusSeeOther)
	}
}

// AddVideoHandler registers a video link. Field errors from the API are shown
// next to the matching inputs, anything else as a flash message.
func AddVideoHandler(app *handlers.AppHandlers, api ContentAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())
		ctx := r.Context()

		if err := r.ParseForm(); err != nil {
			app.RenderError(w, r, http.StatusBadRequest, "The form could not be read.")
			return
		}
		form := validation.VideoForm{
			Link:        strings.TrimSpace(r.PostForm.Get("link")),
			Description: strings.TrimSpace(r.PostForm.Get("description")),
		}
		values := url.Values{"link": {form.Link}, "description": {form.Description}}

		if errs := validation.ValidateStruct(form); errs != nil {
			app.Sessions.PutForm(ctx, errs, values)
			http.Redirect(w, r, documentsPath, http.StatusSeeOther)
			return
		}

		if err := api.AddVideo(ctx, sess.Token, form.Link, form.Description); err != nil {
			slog.Warn("Adding video failed", "link", form.Link, sl.Err(err))
			errs, other := splitFieldErrors(err)
			app.Sessions.PutForm(ctx, errs, values)
			if other != "" {
				app.Sessions.FlashError(ctx, other)
			}
			http.Redirect(w, r, documentsPath, http.StatusSeeOther)
			return
		}

		slog.Info("Video added", "link", form.Link, "user_id", sess.UserID)
		app.Sessions.FlashSuccess(ctx, "Video added.")
		http.Redirect(w, r, documentsPath, http.StatusSeeOther)
	}
}

func splitFieldErrors(err error) (url.Values, string) {
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return url.Values{}, "Failed to add video: " + remote.Message(err)
	}

	errs := url.Values{}
	var other []string
	for field, msgs := range handlers.FieldErrorValues(apiErr.Fields) {
		switch field {
		case "link", "description":
			errs[field] = msgs
		default:
			for _, m := range msgs {
				other = append(other, field+": "+m)
			}
		}
	}
	return errs, strings.Join(other, "; ")
}

// ConfirmDeletePageHandler asks before a document is removed.
func ConfirmDeletePageHandler(app *handlers.AppHandlers, api ContentAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())
		id := r.PathValue("id")

		docs, err := api.ListDocuments(r.Context(), sess.Token)
		if err != nil {
			slog.Error("Listing documents failed", sl.Err(err))
			app.RenderError(w, r, http.StatusBadGateway, "Could not load documents: "+remote.Message(err))
			return
		}

		for _, d := range docs {
			if d.ID.String() == id {
				data := app.NewPageData(r)
				data.PageTitle = "Delete document"
				data.Document = &d
				app.RenderPage(w, r, "admin_confirm_delete.html", data)
				return
			}
		}
		app.RenderError(w, r, http.StatusNotFound, "Document not found.")
	}
}

func DeleteDocumentHandler(app *handlers.AppHandlers, api ContentAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())
		ctx := r.Context()
		id := r.PathValue("id")

		if err := api.DeleteDocument(ctx, sess.Token, id); err != nil {
			slog.Error("Deleting document failed", "document_id", id, sl.Err(err))
			app.Sessions.FlashError(ctx, "Failed to delete document: "+remote.Message(err))
			http.Redirect(w, r, documentsPath, http.StatusSeeOther)
			return
		}

		slog.Info("Document deleted", "document_id", id, "user_id", sess.UserID)
		app.Sessions.FlashSuccess(ctx, "Document deleted.")
		http.Redirect(w, r, documentsPath, http.StatusSeeOther)
	}
}
