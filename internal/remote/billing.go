package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"arabic-chatbot.app/internal/models"
)

var ErrOrderNotCreated = errors.New("remote: subscription order was not created")

// GetSubscription returns ErrNotFound (via errors.Is) when the user has none.
// A 200 with an empty object is returned as an empty Subscription.
func (c *Client) GetSubscription(ctx context.Context, token, userID string) (*models.Subscription, error) {
	const op = "remote.GetSubscription"

	var sub models.Subscription
	err := c.doJSON(ctx, call{
		method: http.MethodGet,
		route:  "/subscriptions/{id}",
		path:   "/subscriptions/" + url.PathEscape(userID),
		token:  token,
	}, &sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

func (c *Client) StartTrial(ctx context.Context, token, userID string) error {
	const op = "remote.StartTrial"

	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		route:  "/start-trial/{id}",
		path:   "/start-trial/" + url.PathEscape(userID),
		token:  token,
	}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateSubscriptionOrder begins a paid checkout. The returned order is only
// usable when its status is CREATED and it carries an approval URL.
func (c *Client) CreateSubscriptionOrder(ctx context.Context, token, userID string, plan models.Plan) (*models.Order, error) {
	const op = "remote.CreateSubscriptionOrder"

	var order models.Order
	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		route:  "/create-subscription-order",
		path:   "/create-subscription-order",
		token:  token,
		body:   map[string]string{"user_id": userID, "plan": string(plan)},
	}, &order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.Status != models.OrderStatusCreated || order.ApproveURL == "" || order.OrderID == "" {
		return nil, fmt.Errorf("%s: status %q: %w", op, order.Status, ErrOrderNotCreated)
	}
	return &order, nil
}

// CaptureOrder finalizes a payment after the provider redirected back.
func (c *Client) CaptureOrder(ctx context.Context, token, orderID, payerID, providerToken string) (*models.CaptureResult, error) {
	const op = "remote.CaptureOrder"

	var res models.CaptureResult
	err := c.doJSON(ctx, call{
		method: http.MethodPost,
		route:  "/capture-order/{id}",
		path:   "/capture-order/" + url.PathEscape(orderID),
		token:  token,
		body:   map[string]string{"payer_id": payerID, "token": providerToken},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &res, nil
}
