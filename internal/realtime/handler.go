package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"arabic-chatbot.app/internal/chat"
	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/session"

	ws "github.com/coder/websocket"
)

// Handler upgrades the request to the chat channel. It must sit behind the
// session guard and the subscription gate. Channels are closed when shutdown
// is cancelled, since the server no longer tracks hijacked connections.
func Handler(shutdown context.Context, asker chat.Asker, saver FlashcardSaver, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		// Server-wide deadlines would otherwise cut long-lived channels.
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("Chat channel accept failed", sl.Err(err))
			return
		}
		conn.SetReadLimit(maxMessageSize)
		defer conn.CloseNow()

		client := newClient(r.Context(), conn, sess, asker, saver, logger)
		stop := context.AfterFunc(shutdown, client.cancel)
		defer stop()
		client.Run()
		conn.Close(ws.StatusNormalClosure, "")
	}
}
