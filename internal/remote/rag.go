package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"arabic-chatbot.app/internal/models"
)

type QueryRequest struct {
	Question   string       `json:"question"`
	UserID     string       `json:"user_id"`
	Level      models.Level `json:"level"`
	Diacritics bool         `json:"diacritics"`
}

type QueryResponse struct {
	Answer  string        `json:"answer"`
	YouTube *models.Media `json:"youtube,omitempty"`
}

// Media returns the attached video, or nil when the answer has none.
func (r *QueryResponse) Media() *models.Media {
	if r.YouTube == nil || r.YouTube.EmbedURL == "" {
		return nil
	}
	return r.YouTube
}

// QueryRAG asks the retrieval backend one question. It is never retried.
func (c *Client) QueryRAG(ctx context.Context, token string, q QueryRequest) (*QueryResponse, error) {
	const op = "remote.QueryRAG"

	var res QueryResponse
	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		route:  "/query_rag",
		path:   "/query_rag",
		token:  token,
		body:   q,
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &res, nil
}

type buildResponse struct {
	Message string `json:"message"`
}

// BuildRAG uploads one document for indexing and returns the API's message.
func (c *Client) BuildRAG(ctx context.Context, token, filename string, file io.Reader) (string, error) {
	const op = "remote.BuildRAG"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%s: create form file: %w", op, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("%s: copy file: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%s: close multipart: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/build_rag", &buf)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res buildResponse
	cl := call{method: http.MethodPost, route: "/build_rag", path: "/build_rag", token: token}
	if err := c.send(c.uploadClient, req, cl, &res); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return res.Message, nil
}
