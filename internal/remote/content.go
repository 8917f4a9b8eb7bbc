package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"arabic-chatbot.app/internal/models"
)

var ErrFlashcardNotSaved = errors.New("remote: flashcard was not saved")

// AddVideo registers a video resource. An empty description is sent as null.
func (c *Client) AddVideo(ctx context.Context, token, link, description string) error {
	const op = "remote.AddVideo"

	video := models.Video{Link: strings.TrimSpace(link)}
	if d := strings.TrimSpace(description); d != "" {
		video.Description = &d
	}

	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		route:  "/add_video",
		path:   "/add_video",
		token:  token,
		body:   video,
	}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListDocuments accepts both {"documents": [...]} and a bare array.
func (c *Client) ListDocuments(ctx context.Context, token string) ([]models.Document, error) {
	const op = "remote.ListDocuments"

	var raw json.RawMessage
	err := c.doJSON(ctx, call{
		method: http.MethodGet,
		route:  "/documents",
		path:   "/documents",
		token:  token,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	docs, err := decodeDocuments(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return docs, nil
}

func decodeDocuments(raw json.RawMessage) ([]models.Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.Document{}, nil
	}

	var docs []models.Document
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, err
		}
	} else {
		var wrapped struct {
			Documents []models.Document `json:"documents"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, err
		}
		docs = wrapped.Documents
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

func (c *Client) DeleteDocument(ctx context.Context, token, documentID string) error {
	const op = "remote.DeleteDocument"

	err := c.doJSON(ctx, call{
		method: http.MethodDelete,
		route:  "/documents/{id}",
		path:   "/documents/" + url.PathEscape(documentID),
		token:  token,
	}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveFlashcard stores a question/answer pair. A response with success=false
// is reported as ErrFlashcardNotSaved.
func (c *Client) SaveFlashcard(ctx context.Context, token, userID, question, answer string) (*models.SaveFlashcardResult, error) {
	const op = "remote.SaveFlashcard"

	var res models.SaveFlashcardResult
	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		route:  "/save_flashcard",
		path:   "/save_flashcard",
		token:  token,
		body:   map[string]string{"user_id": userID, "question": question, "answer": answer},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Failed to save flashcard"
		}
		return nil, fmt.Errorf("%s: %s: %w", op, msg, ErrFlashcardNotSaved)
	}
	return &res, nil
}

func (c *Client) ListFlashcards(ctx context.Context, token, userID string) ([]models.Flashcard, error) {
	const op = "remote.ListFlashcards"

	var res struct {
		Flashcards []models.Flashcard `json:"flashcards"`
	}
	err := c.doJSON(ctx, call{
		method: http.MethodGet,
		route:  "/flashcards/{id}",
		path:   "/flashcards/" + url.PathEscape(userID),
		token:  token,
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.Flashcards == nil {
		res.Flashcards = []models.Flashcard{}
	}
	return res.Flashcards, nil
}
