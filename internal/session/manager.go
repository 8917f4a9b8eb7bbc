package session

import (
	"context"
	"encoding/gob"
	"fmt"
	"net/url"

	"arabic-chatbot.app/internal/models"

	"github.com/alexedwards/scs/v2"
)

const (
	keyToken          = "access_token"
	keyUserID         = "user_id"
	keyUsername       = "username"
	keyIsAdmin        = "is_admin"
	keyProfileLoaded  = "profile_loaded"
	keyLanguage       = "language"
	keyPendingOrderID = "pending_order_id"
	keyPendingPlan    = "pending_plan"
	keyFlashSuccess   = "flash_success"
	keyFlashError     = "flash_error"
	keyFormErrors     = "form_errors"
	keyFormValues     = "form_values"
)

func init() {
	gob.Register(url.Values{})
}

// Manager is the only code that touches the scs keys.
type Manager struct {
	sm *scs.SessionManager
}

func NewManager(sm *scs.SessionManager) *Manager {
	return &Manager{sm: sm}
}

func (m *Manager) SessionManager() *scs.SessionManager {
	return m.sm
}

// Begin starts a fresh session for a successful login. The session token is
// renewed to prevent fixation.
func (m *Manager) Begin(ctx context.Context, token, userID string) error {
	if err := m.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("session.Begin: %w", err)
	}
	m.sm.Put(ctx, keyToken, token)
	m.sm.Put(ctx, keyUserID, userID)
	m.sm.Remove(ctx, keyProfileLoaded)
	return nil
}

func (m *Manager) Token(ctx context.Context) string {
	return m.sm.GetString(ctx, keyToken)
}

func (m *Manager) StoredUserID(ctx context.Context) string {
	return m.sm.GetString(ctx, keyUserID)
}

func (m *Manager) SetProfile(ctx context.Context, p *models.Profile) {
	m.sm.Put(ctx, keyUsername, p.Username)
	m.sm.Put(ctx, keyIsAdmin, p.IsAdmin)
	m.sm.Put(ctx, keyProfileLoaded, true)
}

func (m *Manager) ProfileLoaded(ctx context.Context) bool {
	return m.sm.GetBool(ctx, keyProfileLoaded)
}

// Load builds the session value for a request whose user id has already been
// taken from the token.
func (m *Manager) Load(ctx context.Context, userID string) *Session {
	lang := models.Language(m.sm.GetString(ctx, keyLanguage))
	if !lang.Valid() {
		lang = models.LanguageEnglish
	}
	return &Session{
		Token:    m.sm.GetString(ctx, keyToken),
		UserID:   userID,
		Username: m.sm.GetString(ctx, keyUsername),
		IsAdmin:  m.sm.GetBool(ctx, keyIsAdmin),
		Language: lang,
	}
}

func (m *Manager) SetLanguage(ctx context.Context, lang models.Language) {
	m.sm.Put(ctx, keyLanguage, string(lang))
}

// Destroy clears every stored credential.
func (m *Manager) Destroy(ctx context.Context) error {
	if err := m.sm.Destroy(ctx); err != nil {
		return fmt.Errorf("session.Destroy: %w", err)
	}
	return nil
}

func (m *Manager) SetPendingOrder(ctx context.Context, o models.PendingOrder) {
	m.sm.Put(ctx, keyPendingOrderID, o.OrderID)
	m.sm.Put(ctx, keyPendingPlan, string(o.Plan))
}

func (m *Manager) PendingOrder(ctx context.Context) (models.PendingOrder, bool) {
	id := m.sm.GetString(ctx, keyPendingOrderID)
	if id == "" {
		return models.PendingOrder{}, false
	}
	return models.PendingOrder{OrderID: id, Plan: models.Plan(m.sm.GetString(ctx, keyPendingPlan))}, true
}

func (m *Manager) ClearPendingOrder(ctx context.Context) {
	m.sm.Remove(ctx, keyPendingOrderID)
	m.sm.Remove(ctx, keyPendingPlan)
}

func (m *Manager) FlashSuccess(ctx context.Context, msg string) {
	m.sm.Put(ctx, keyFlashSuccess, msg)
}

func (m *Manager) FlashError(ctx context.Context, msg string) {
	m.sm.Put(ctx, keyFlashError, msg)
}

// PopFlash returns and clears both flash messages.
func (m *Manager) PopFlash(ctx context.Context) (success, failure string) {
	return m.sm.PopString(ctx, keyFlashSuccess), m.sm.PopString(ctx, keyFlashError)
}

// PutForm keeps validation errors and submitted values across a redirect.
func (m *Manager) PutForm(ctx context.Context, errs, values url.Values) {
	m.sm.Put(ctx, keyFormErrors, errs)
	m.sm.Put(ctx, keyFormValues, values)
}

func (m *Manager) PopForm(ctx context.Context) (errs, values url.Values) {
	errs = url.Values{}
	values = url.Values{}
	if e, ok := m.sm.Pop(ctx, keyFormErrors).(url.Values); ok {
		errs = e
	}
	if v, ok := m.sm.Pop(ctx, keyFormValues).(url.Values); ok {
		values = v
	}
	return errs, values
}
