// Package chat keeps the ordered turns of one chat view and serializes the
// questions it sends to the retrieval backend.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/remote"

	"github.com/google/uuid"
)

var (
	ErrEmptyQuestion = errors.New("chat: empty question")
	ErrBusy          = errors.New("chat: a response is still pending")
	ErrClosed        = errors.New("chat: conversation closed")
	ErrNoSuchTurn    = errors.New("chat: no such turn")
	ErrNotBotTurn    = errors.New("chat: turn is not an answer")
	ErrNoQuestion    = errors.New("chat: answer has no preceding question")
)

type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting"
)

type Asker interface {
	QueryRAG(ctx context.Context, token string, q remote.QueryRequest) (*remote.QueryResponse, error)
}

type Prefs struct {
	Level      models.Level
	Diacritics bool
}

func DefaultPrefs() Prefs {
	return Prefs{Level: models.LevelBeginner, Diacritics: true}
}

// Normalize replaces an unknown level with the default one.
func (p Prefs) Normalize() Prefs {
	if !p.Level.Valid() {
		p.Level = models.LevelBeginner
	}
	return p
}

// Listener receives every appended turn and every state change, in order.
// It is called without the conversation lock held, so it may block or read
// the conversation.
type Listener interface {
	TurnAppended(index int, turn models.Turn)
	StateChanged(state State)
}

type Conversation struct {
	ID     string
	token  string
	userID string
	asker  Asker

	ctx    context.Context
	cancel context.CancelFunc

	// notifyMu keeps listener calls in append order. mu is never held
	// while the listener runs.
	notifyMu sync.Mutex
	mu       sync.Mutex
	turns    []models.Turn
	state    State
	closed   bool
	listener Listener
}

// New starts a conversation bound to parent. Cancelling parent or calling
// Close aborts any in-flight question.
func New(parent context.Context, asker Asker, token, userID string, listener Listener) *Conversation {
	ctx, cancel := context.WithCancel(parent)
	return &Conversation{
		ID:       uuid.NewString(),
		token:    token,
		userID:   userID,
		asker:    asker,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateIdle,
		listener: listener,
	}
}

// Submit appends the user turn, asks the backend once and appends exactly one
// bot turn, either the answer or "Error: <message>". It blocks until the answer
// arrives. A second Submit while one is pending fails with ErrBusy.
func (c *Conversation) Submit(question string, prefs Prefs) (models.Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.Turn{}, ErrEmptyQuestion
	}
	prefs = prefs.Normalize()

	c.notifyMu.Lock()
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		c.notifyMu.Unlock()
		return models.Turn{}, ErrClosed
	case c.state == StateAwaiting:
		c.mu.Unlock()
		c.notifyMu.Unlock()
		return models.Turn{}, ErrBusy
	}
	user := models.Turn{Role: models.TurnUser, Text: question}
	userIndex := c.appendLocked(user)
	c.state = StateAwaiting
	c.mu.Unlock()
	c.notify(userIndex, user, StateAwaiting)
	c.notifyMu.Unlock()

	res, err := c.asker.QueryRAG(c.ctx, c.token, remote.QueryRequest{
		Question:   question,
		UserID:     c.userID,
		Level:      prefs.Level,
		Diacritics: prefs.Diacritics,
	})

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		slog.Debug("Dropping answer for closed conversation", "conversation_id", c.ID)
		return models.Turn{}, ErrClosed
	}

	var bot models.Turn
	if err != nil {
		slog.Warn("Question failed", "conversation_id", c.ID, "user_id", c.userID, sl.Err(err))
		bot = models.Turn{Role: models.TurnBot, Text: "Error: " + remote.Message(err)}
	} else {
		bot = models.Turn{Role: models.TurnBot, Text: res.Answer, Media: res.Media()}
	}
	botIndex := c.appendLocked(bot)
	c.state = StateIdle
	c.mu.Unlock()
	c.notify(botIndex, bot, StateIdle)
	return bot, nil
}

func (c *Conversation) appendLocked(t models.Turn) int {
	c.turns = append(c.turns, t)
	return len(c.turns) - 1
}

// notify must be called with notifyMu held and mu released.
func (c *Conversation) notify(index int, t models.Turn, s State) {
	if c.listener == nil {
		return
	}
	c.listener.TurnAppended(index, t)
	c.listener.StateChanged(s)
}

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Turns returns a copy of the turns in submission order.
func (c *Conversation) Turns() []models.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Turn(index int) (models.Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.turns) {
		return models.Turn{}, fmt.Errorf("turn %d: %w", index, ErrNoSuchTurn)
	}
	return c.turns[index], nil
}

// FlashcardPair returns the answer at index together with the closest user
// question before it.
func (c *Conversation) FlashcardPair(index int) (question, answer string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.turns) {
		return "", "", fmt.Errorf("turn %d: %w", index, ErrNoSuchTurn)
	}
	if c.turns[index].Role != models.TurnBot {
		return "", "", fmt.Errorf("turn %d: %w", index, ErrNotBotTurn)
	}
	for j := index - 1; j >= 0; j-- {
		if c.turns[j].Role == models.TurnUser {
			return c.turns[j].Text, c.turns[index].Text, nil
		}
	}
	return "", "", fmt.Errorf("turn %d: %w", index, ErrNoQuestion)
}

// Close cancels any in-flight question. Answers that arrive afterwards are dropped.
func (c *Conversation) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}
