package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arabic-chatbot.app/internal/chat"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/session"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := &session.Session{Token: "tok", UserID: "7", Language: models.LanguageEnglish}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
	})
}

func TestHandlerRequiresSession(t *testing.T) {
	h := Handler(context.Background(), &stubAsker{}, &stubSaver{}, slog.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerRoundTrip(t *testing.T) {
	srv := httptest.NewServer(withTestSession(Handler(context.Background(), &stubAsker{answer: "Hallo"}, &stubSaver{}, slog.Default())))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, wsjson.Write(ctx, conn, Inbound{Type: TypeAsk, Question: "hello"}))

	var got []Outbound
	for len(got) < 4 {
		var out Outbound
		require.NoError(t, wsjson.Read(ctx, conn, &out))
		got = append(got, out)
	}
	assert.Equal(t, TypeTurn, got[0].Type)
	assert.Equal(t, chat.StateAwaiting, got[1].State)
	assert.Equal(t, "Hallo", got[2].Turn.Text)
	assert.Equal(t, chat.StateIdle, got[3].State)

	require.NoError(t, conn.Close(ws.StatusNormalClosure, ""))
}

func TestHandlerCancelsInFlightQuestionOnClose(t *testing.T) {
	asker := &stubAsker{release: make(chan struct{}), aborted: make(chan struct{})}
	srv := httptest.NewServer(withTestSession(Handler(context.Background(), asker, &stubSaver{}, slog.Default())))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	require.NoError(t, wsjson.Write(ctx, conn, Inbound{Type: TypeAsk, Question: "slow"}))
	var out Outbound
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	require.Equal(t, chat.StateAwaiting, out.State)

	require.NoError(t, conn.Close(ws.StatusGoingAway, "navigated away"))

	select {
	case <-asker.aborted:
	case <-ctx.Done():
		t.Fatal("in-flight question was not cancelled after the channel closed")
	}
}

func TestHandlerClosesChannelsOnShutdown(t *testing.T) {
	shutdown, stop := context.WithCancel(context.Background())
	asker := &stubAsker{release: make(chan struct{}), aborted: make(chan struct{})}
	srv := httptest.NewServer(withTestSession(Handler(shutdown, asker, &stubSaver{}, slog.Default())))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, wsjson.Write(ctx, conn, Inbound{Type: TypeAsk, Question: "slow"}))
	var out Outbound
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	require.Equal(t, chat.StateAwaiting, out.State)

	stop()

	select {
	case <-asker.aborted:
	case <-ctx.Done():
		t.Fatal("in-flight question survived shutdown")
	}
	for {
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			assert.NotErrorIs(t, err, context.DeadlineExceeded, "channel was not closed")
			break
		}
	}
}
