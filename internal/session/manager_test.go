package session

import (
	"context"
	"net/url"
	"testing"

	"arabic-chatbot.app/internal/models"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedContext(t *testing.T) (*Manager, context.Context) {
	t.Helper()
	sm := scs.New()
	ctx, err := sm.Load(context.Background(), "")
	require.NoError(t, err)
	return NewManager(sm), ctx
}

func TestManagerBeginAndLoad(t *testing.T) {
	m, ctx := loadedContext(t)

	require.NoError(t, m.Begin(ctx, "tok", "7"))
	m.SetProfile(ctx, &models.Profile{Username: "amina", IsAdmin: true})
	m.SetLanguage(ctx, models.LanguageArabic)

	s := m.Load(ctx, "7")
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, "7", s.UserID)
	assert.Equal(t, "amina", s.Username)
	assert.True(t, s.IsAdmin)
	assert.Equal(t, models.RoleAdmin, s.Role())
	assert.Equal(t, models.LanguageArabic, s.Language)
	assert.True(t, m.ProfileLoaded(ctx))
}

func TestManagerDefaultsLanguage(t *testing.T) {
	m, ctx := loadedContext(t)
	s := m.Load(ctx, "7")
	assert.Equal(t, models.LanguageEnglish, s.Language)
	assert.Equal(t, "User 7", s.DisplayName())
}

func TestManagerPendingOrder(t *testing.T) {
	m, ctx := loadedContext(t)

	_, ok := m.PendingOrder(ctx)
	assert.False(t, ok)

	m.SetPendingOrder(ctx, models.PendingOrder{OrderID: "O-1", Plan: models.PlanYearly})
	o, ok := m.PendingOrder(ctx)
	require.True(t, ok)
	assert.Equal(t, "O-1", o.OrderID)
	assert.Equal(t, models.PlanYearly, o.Plan)

	m.ClearPendingOrder(ctx)
	_, ok = m.PendingOrder(ctx)
	assert.False(t, ok)
}

func TestManagerFlashAndForm(t *testing.T) {
	m, ctx := loadedContext(t)

	m.FlashSuccess(ctx, "saved")
	ok, bad := m.PopFlash(ctx)
	assert.Equal(t, "saved", ok)
	assert.Empty(t, bad)
	ok, _ = m.PopFlash(ctx)
	assert.Empty(t, ok)

	m.PutForm(ctx, url.Values{"link": {"required"}}, url.Values{"link": {""}})
	errs, values := m.PopForm(ctx)
	assert.Equal(t, "required", errs.Get("link"))
	assert.Contains(t, values, "link")

	errs, _ = m.PopForm(ctx)
	assert.Empty(t, errs)
}

func TestManagerDestroy(t *testing.T) {
	m, ctx := loadedContext(t)
	require.NoError(t, m.Begin(ctx, "tok", "7"))
	require.NoError(t, m.Destroy(ctx))
	assert.Empty(t, m.Token(ctx))
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), &Session{UserID: "7"})
	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "7", s.UserID)
}
