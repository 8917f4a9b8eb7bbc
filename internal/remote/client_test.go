package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arabic-chatbot.app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second, 5*time.Second)
}

func TestLoginSendsCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body["email"])
		assert.Equal(t, "secret", body["password"])

		w.Write([]byte(`{"access_token":"tok","user_id":42}`))
	})

	res, err := c.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
	assert.Equal(t, models.FlexibleID("42"), res.UserID)
}

func TestLoginWithoutTokenFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := c.Login(context.Background(), "a@b.c", "secret")
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestSignupErrorUsesDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["is_admin"])
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Email already registered"}`))
	})

	err := c.Signup(context.Background(), models.SignupRequest{Email: "a@b.c", IsAdmin: true})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", Message(err))
}

func TestGetSubscriptionNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/7", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Subscription not found"}`))
	})

	_, err := c.GetSubscription(context.Background(), "tok", "7")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSubscriptionEmptyObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	sub, err := c.GetSubscription(context.Background(), "tok", "7")
	require.NoError(t, err)
	assert.True(t, sub.IsEmpty())
}

func TestCreateSubscriptionOrder(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "created", body: `{"order_id":"O-1","approve_url":"https://pay.example/approve","status":"CREATED"}`},
		{name: "wrong status", body: `{"order_id":"O-1","approve_url":"https://pay.example/approve","status":"FAILED"}`, wantErr: ErrOrderNotCreated},
		{name: "missing url", body: `{"order_id":"O-1","status":"CREATED"}`, wantErr: ErrOrderNotCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "monthly", body["plan"])
				assert.Equal(t, "7", body["user_id"])
				w.Write([]byte(tt.body))
			})

			order, err := c.CreateSubscriptionOrder(context.Background(), "tok", "7", models.PlanMonthly)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "O-1", order.OrderID)
		})
	}
}

func TestCaptureOrderPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/capture-order/O-1", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "PAYER", body["payer_id"])
		assert.Equal(t, "PTOK", body["token"])
		w.Write([]byte(`{"status":"COMPLETED"}`))
	})

	res, err := c.CaptureOrder(context.Background(), "tok", "O-1", "PAYER", "PTOK")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", res.Status)
}

func TestQueryRAG(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var q QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "What is salam?", q.Question)
		assert.Equal(t, models.LevelAdvanced, q.Level)
		assert.True(t, q.Diacritics)
		w.Write([]byte(`{"answer":"Peace","youtube":{"embed_url":"https://yt/embed/1","watch_url":"https://yt/watch?v=1"}}`))
	})

	res, err := c.QueryRAG(context.Background(), "tok", QueryRequest{
		Question: "What is salam?", UserID: "7", Level: models.LevelAdvanced, Diacritics: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Peace", res.Answer)
	require.NotNil(t, res.Media())
	assert.Equal(t, "https://yt/embed/1", res.Media().EmbedURL)
}

func TestQueryRAGWithoutVideo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"Peace","youtube":{"embed_url":""}}`))
	})

	res, err := c.QueryRAG(context.Background(), "tok", QueryRequest{Question: "q"})
	require.NoError(t, err)
	assert.Nil(t, res.Media())
}

func TestBuildRAGUploadsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "lesson.docx", hdr.Filename)
		assert.Equal(t, "content", string(data))
		w.Write([]byte(`{"message":"Indexed 3 chunks"}`))
	})

	msg, err := c.BuildRAG(context.Background(), "tok", "lesson.docx", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "Indexed 3 chunks", msg)
}

func TestAddVideoSendsNullDescription(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"link":"https://yt/watch?v=1","description":null}`, string(raw))
		w.Write([]byte(`{"status":"ok"}`))
	})

	require.NoError(t, c.AddVideo(context.Background(), "tok", " https://yt/watch?v=1 ", "  "))
}

func TestAddVideoValidationErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","link"],"msg":"invalid url","input":"nope"}]}`))
	})

	err := c.AddVideo(context.Background(), "tok", "nope", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "body.link", apiErr.Fields[0].Field)
	assert.Equal(t, "invalid url", apiErr.Fields[0].Message)
	assert.Equal(t, `"nope"`, apiErr.Fields[0].Input)
	assert.Equal(t, `invalid url: body.link (got: "nope")`, apiErr.Message)
}

func TestListDocumentsShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "wrapped", body: `{"documents":[{"id":1,"filename":"a.docx"},{"id":2}]}`, want: 2},
		{name: "bare array", body: `[{"id":"x"}]`, want: 1},
		{name: "empty body", body: ``, want: 0},
		{name: "wrapped without key", body: `{}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			docs, err := c.ListDocuments(context.Background(), "tok")
			require.NoError(t, err)
			assert.Len(t, docs, tt.want)
		})
	}
}

func TestDeleteDocument(t *testing.T) {
	var called bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/documents/12", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteDocument(context.Background(), "tok", "12"))
	assert.True(t, called)
}

func TestSaveFlashcardNotSaved(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"duplicate"}`))
	})

	_, err := c.SaveFlashcard(context.Background(), "tok", "7", "q", "a")
	assert.ErrorIs(t, err, ErrFlashcardNotSaved)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestListFlashcards(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flashcards/7", r.URL.Path)
		w.Write([]byte(`{"flashcards":[{"_id":"f1","title":"Greetings","question":"q","answer":"a"}]}`))
	})

	cards, err := c.ListFlashcards(context.Background(), "tok", "7")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Greetings", cards[0].DisplayTitle())
}

func TestNetworkErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := NewClient(srv.URL, time.Second, time.Second)

	_, err := c.GetSubscription(context.Background(), "tok", "7")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDecodeAPIErrorFallbacks(t *testing.T) {
	assert.Equal(t, "boom", decodeAPIError(500, []byte(`{"message":"boom"}`)).Message)
	assert.Equal(t, "bad", decodeAPIError(400, []byte(`{"error":"bad"}`)).Message)
	assert.Equal(t, "HTTP 502: Bad Gateway", decodeAPIError(502, []byte(`{}`)).Message)
	assert.Equal(t, "upstream down", decodeAPIError(503, []byte("upstream down")).Message)
	assert.Equal(t, "HTTP 500: Internal Server Error", decodeAPIError(500, nil).Message)
}
