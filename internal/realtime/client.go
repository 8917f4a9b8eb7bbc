package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"arabic-chatbot.app/internal/chat"
	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/remote"
	"arabic-chatbot.app/internal/session"
	"arabic-chatbot.app/internal/speech"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 32
	pingInterval   = 30 * time.Second
	maxMessageSize = 16 << 10
)

type FlashcardSaver interface {
	SaveFlashcard(ctx context.Context, token, userID, question, answer string) (*models.SaveFlashcardResult, error)
}

// Client is one chat view: a websocket connection, its conversation and its
// speech state. Everything it owns ends with the connection.
type Client struct {
	conn   *ws.Conn
	send   chan []byte
	sess   *session.Session
	conv   *chat.Conversation
	speech *speech.Coordinator
	saver  FlashcardSaver
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

func newClient(parent context.Context, conn *ws.Conn, sess *session.Session, asker chat.Asker, saver FlashcardSaver, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(parent)
	c := &Client{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		sess:   sess,
		saver:  saver,
		ctx:    ctx,
		cancel: cancel,
	}
	c.conv = chat.New(ctx, asker, sess.Token, sess.UserID, c)
	c.logger = logger.With("conversation_id", c.conv.ID, "user_id", sess.UserID)
	c.speech = speech.NewCoordinator(c.logger)
	return c
}

// Run starts the write pump and runs the read pump until the connection
// closes, then cancels everything still in flight.
func (c *Client) Run() {
	activeConnections.Inc()
	defer activeConnections.Dec()
	defer c.conv.Close()
	defer c.speech.Stop(speech.ReasonUnmount)
	// Cancel first so listeners blocked on a full send buffer are released.
	defer c.cancel()

	go c.writePump(c.ctx)
	c.readPump(c.ctx)
}

func (c *Client) readPump(ctx context.Context) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			if ws.CloseStatus(err) != ws.StatusNormalClosure && ws.CloseStatus(err) != ws.StatusGoingAway && !errors.Is(err, context.Canceled) {
				c.logger.Debug("Chat channel read ended", sl.Err(err))
			}
			return
		}
		if typ != ws.MessageText {
			continue
		}
		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.emit(Outbound{Type: TypeError, Message: "malformed message"})
			continue
		}
		messagesReceived.WithLabelValues(metricLabel(in.Type)).Inc()
		c.handle(in)
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handle(in Inbound) {
	switch in.Type {
	case TypeAsk:
		if c.conv.State() == chat.StateAwaiting {
			c.emit(Outbound{Type: TypeError, Message: "Please wait for the current answer."})
			return
		}
		go c.ask(in.Question, in.prefs())
	case TypeSpeak:
		c.speak(in.Turn)
	case TypeSpeechEnded:
		c.speech.Ended(in.Turn)
	case TypeSpeechPaused:
		c.emitSpeech(c.speech.Keepalive(true))
	case TypeVisibility:
		if in.Hidden {
			c.emitSpeech(c.speech.Stop(speech.ReasonHidden))
		}
	case TypeUnload:
		c.emitSpeech(c.speech.Stop(speech.ReasonUnload))
	case TypeSaveFlashcard:
		go c.saveFlashcard(in.Turn)
	default:
		c.emit(Outbound{Type: TypeError, Message: "unknown message type"})
	}
}

func (c *Client) ask(question string, prefs chat.Prefs) {
	_, err := c.conv.Submit(question, prefs)
	switch {
	case err == nil, errors.Is(err, chat.ErrClosed):
	case errors.Is(err, chat.ErrBusy):
		c.emit(Outbound{Type: TypeError, Message: "Please wait for the current answer."})
	case errors.Is(err, chat.ErrEmptyQuestion):
		c.emit(Outbound{Type: TypeError, Message: "Please type a question."})
	default:
		c.logger.Error("Chat submit failed", sl.Err(err))
		c.emit(Outbound{Type: TypeError, Message: err.Error()})
	}
}

func (c *Client) speak(turn int) {
	t, err := c.conv.Turn(turn)
	if err != nil || t.Role != models.TurnBot {
		c.emit(Outbound{Type: TypeError, Message: "Only answers can be read aloud."})
		return
	}
	c.emitSpeech(c.speech.Start(turn))
}

func (c *Client) emitSpeech(directives []speech.Directive) {
	for _, d := range directives {
		out := Outbound{Type: TypeSpeech, Action: d.Action, Target: d.Turn}
		if d.Action == speech.ActionSpeak {
			if t, err := c.conv.Turn(d.Turn); err == nil {
				out.Text = t.Text
			}
			out.Lang = c.sess.Language.SpeechLang()
		}
		c.emit(out)
	}
}

func (c *Client) saveFlashcard(turn int) {
	question, answer, err := c.conv.FlashcardPair(turn)
	if err != nil {
		c.emit(Outbound{Type: TypeError, Message: "Failed to save flashcard: " + err.Error()})
		return
	}
	res, err := c.saver.SaveFlashcard(c.ctx, c.sess.Token, c.sess.UserID, question, answer)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Warn("Saving flashcard failed", sl.Err(err))
		c.emit(Outbound{Type: TypeError, Message: "Failed to save flashcard: " + remote.Message(err)})
		return
	}
	c.emit(Outbound{Type: TypeFlashcard, Index: turn, Title: res.Title, Message: res.Message})
}

func metricLabel(typ string) string {
	switch typ {
	case TypeAsk, TypeSpeak, TypeSpeechEnded, TypeSpeechPaused, TypeVisibility, TypeUnload, TypeSaveFlashcard:
		return typ
	}
	return "unknown"
}

// TurnAppended implements chat.Listener.
func (c *Client) TurnAppended(index int, turn models.Turn) {
	t := turn
	c.emit(Outbound{Type: TypeTurn, Index: index, Turn: &t})
}

// StateChanged implements chat.Listener.
func (c *Client) StateChanged(state chat.State) {
	c.emit(Outbound{Type: TypeState, State: state})
}

func (c *Client) emit(out Outbound) {
	data, err := json.Marshal(out)
	if err != nil {
		c.logger.Error("Encoding chat message failed", sl.Err(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}
