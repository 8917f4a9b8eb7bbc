package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/remote"
	"arabic-chatbot.app/internal/session"
	"arabic-chatbot.app/internal/subscription"
	"arabic-chatbot.app/internal/validation"
)

type BillingAPI interface {
	StartTrial(ctx context.Context, token, userID string) error
	CreateSubscriptionOrder(ctx context.Context, token, userID string, plan models.Plan) (*models.Order, error)
	CaptureOrder(ctx context.Context, token, orderID, payerID, providerToken string) (*models.CaptureResult, error)
}

type SubscriptionResolver interface {
	Check(ctx context.Context, userID, token string) (subscription.Decision, error)
	Invalidate(ctx context.Context, userID string)
}

type PaymentHandlers struct {
	App           *AppHandlers
	API           BillingAPI
	Subscriptions SubscriptionResolver
}

func NewPaymentHandlers(app *AppHandlers, api BillingAPI, subs SubscriptionResolver) *PaymentHandlers {
	return &PaymentHandlers{App: app, API: api, Subscriptions: subs}
}

func (h *PaymentHandlers) plans() []PlanOption {
	cfg := h.App.Config.Subscription
	return []PlanOption{
		{
			Plan:        models.PlanTrial,
			Title:       "Free trial",
			Price:       "Free",
			Description: fmt.Sprintf("Full access for %d days.", cfg.TrialDays),
			Trial:       true,
		},
		{
			Plan:        models.PlanMonthly,
			Title:       "Monthly",
			Price:       fmt.Sprintf("$%.2f / month", cfg.MonthlyPrice),
			Description: "Unlimited lessons, billed every month.",
		},
		{
			Plan:        models.PlanYearly,
			Title:       "Yearly",
			Price:       fmt.Sprintf("$%.2f / year", cfg.YearlyPrice),
			Description: "Unlimited lessons, billed once a year.",
		},
	}
}

// PaymentsPageHandler shows the current plan. When the payment provider sends
// the user back with token and PayerID it captures the pending order first.
func (h *PaymentHandlers) PaymentsPageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	if providerToken, payerID := q.Get("token"), q.Get("PayerID"); providerToken != "" && payerID != "" {
		h.capture(w, r, sess, providerToken, payerID)
		return
	}

	data := h.App.NewPageData(r)
	data.PageTitle = "Plans"
	data.Plans = h.plans()

	decision, err := h.Subscriptions.Check(r.Context(), sess.UserID, sess.Token)
	if err != nil {
		slog.Error("Loading subscription for payments page failed", "user_id", sess.UserID, sl.Err(err))
		if data.FlashError == "" {
			data.FlashError = "Could not load your subscription status. Please try again later."
		}
	}
	data.Decision = &decision
	h.App.RenderPage(w, r, "payments.html", data)
}

func (h *PaymentHandlers) capture(w http.ResponseWriter, r *http.Request, sess *session.Session, providerToken, payerID string) {
	ctx := r.Context()
	pending, ok := h.App.Sessions.PendingOrder(ctx)
	if !ok {
		h.App.Sessions.FlashError(ctx, "Order ID not found. Please try again.")
		http.Redirect(w, r, "/payments", http.StatusSeeOther)
		return
	}
	h.App.Sessions.ClearPendingOrder(ctx)

	_, err := h.API.CaptureOrder(ctx, sess.Token, pending.OrderID, payerID, providerToken)
	h.Subscriptions.Invalidate(ctx, sess.UserID)
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) {
			slog.Warn("Payment capture rejected", "user_id", sess.UserID, "order_id", pending.OrderID, sl.Err(err))
			h.App.Sessions.FlashError(ctx, "Payment failed: "+apiErr.Message)
		} else {
			slog.Error("Payment capture failed", "user_id", sess.UserID, "order_id", pending.OrderID, sl.Err(err))
			h.App.Sessions.FlashError(ctx, "Payment processing failed. Please contact support.")
		}
		http.Redirect(w, r, "/payments", http.StatusSeeOther)
		return
	}

	slog.Info("Payment captured", "user_id", sess.UserID, "order_id", pending.OrderID, "plan", pending.Plan)
	h.App.Sessions.FlashSuccess(ctx, fmt.Sprintf("Payment successful! Your %s subscription is now active.", pending.Plan))
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func (h *PaymentHandlers) StartTrialHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	ctx := r.Context()

	err := h.API.StartTrial(ctx, sess.Token, sess.UserID)
	h.Subscriptions.Invalidate(ctx, sess.UserID)
	if err != nil {
		slog.Warn("Starting trial failed", "user_id", sess.UserID, sl.Err(err))
		h.App.Sessions.FlashError(ctx, "Could not start the trial: "+remote.Message(err))
		http.Redirect(w, r, "/payments", http.StatusSeeOther)
		return
	}

	slog.Info("Trial started", "user_id", sess.UserID)
	h.App.Sessions.FlashSuccess(ctx, fmt.Sprintf("Your %d-day free trial has started.", h.App.Config.Subscription.TrialDays))
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func (h *PaymentHandlers) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.App.RenderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	form := validation.SubscribeForm{Plan: r.PostForm.Get("plan")}
	if errs := validation.ValidateStruct(form); errs != nil {
		h.App.Sessions.FlashError(ctx, "Please choose the monthly or yearly plan.")
		http.Redirect(w, r, "/payments", http.StatusSeeOther)
		return
	}
	plan := models.Plan(form.Plan)

	order, err := h.API.CreateSubscriptionOrder(ctx, sess.Token, sess.UserID, plan)
	if err != nil {
		slog.Error("Creating subscription order failed", "user_id", sess.UserID, "plan", plan, sl.Err(err))
		msg := "Failed to create the payment order. Please try again."
		if errors.Is(err, remote.ErrOrderNotCreated) {
			msg = "The payment provider did not accept the order. Please try again."
		}
		h.App.Sessions.FlashError(ctx, msg)
		http.Redirect(w, r, "/payments", http.StatusSeeOther)
		return
	}

	h.App.Sessions.SetPendingOrder(ctx, models.PendingOrder{OrderID: order.OrderID, Plan: plan})
	slog.Info("Subscription order created", "user_id", sess.UserID, "order_id", order.OrderID, "plan", plan)
	http.Redirect(w, r, order.ApproveURL, http.StatusSeeOther)
}
