package orderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

// ErrEmptyCart is returned by Checkout when the session has nothing to order.
var ErrEmptyCart = errors.New("orderclient: cart is empty")

// Contact carries the optional details a diner gives at checkout.
type Contact struct {
	TableNumber         string
	Phone               string
	Email               string
	Name                string
	SpecialInstructions string
}

// Order is the subset of a placed order the client cares about.
type Order struct {
	ID       string          `json:"id"`
	Number   string          `json:"order_number"`
	Status   string          `json:"status"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total_amount"`
}

// Client talks to the ordering API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a Client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type checkoutBody struct {
	Items               []Line `json:"items"`
	TableNumber         string `json:"table_number,omitempty"`
	CustomerPhone       string `json:"customer_phone,omitempty"`
	CustomerEmail       string `json:"customer_email,omitempty"`
	CustomerName        string `json:"customer_name,omitempty"`
	CustomerToken       string `json:"customer_token,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

// Checkout submits the session's cart as an order for outletID. The cart is
// cleared only when the order is accepted; the session keeps its token.
func (c *Client) Checkout(ctx context.Context, session *Session, outletID string, contact Contact) (*Order, error) {
	if session == nil || session.Cart.Len() == 0 {
		return nil, ErrEmptyCart
	}

	body := checkoutBody{
		TableNumber:         contact.TableNumber,
		CustomerPhone:       contact.Phone,
		CustomerEmail:       contact.Email,
		CustomerName:        contact.Name,
		CustomerToken:       session.EnsureToken(),
		SpecialInstructions: contact.SpecialInstructions,
		Items:               session.Cart.Lines,
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/outlets/"+url.PathEscape(outletID)+"/orders", body, &order); err != nil {
		return nil, err
	}

	session.Cart.Clear()
	return &order, nil
}

// Track records a menu_viewed or item_added_to_cart event for the session.
func (c *Client) Track(ctx context.Context, session *Session, outletID, eventType, dishID string) error {
	body := map[string]any{"event_type": eventType}
	if dishID != "" {
		body["dish_id"] = dishID
	}
	if session != nil {
		body["customer_token"] = session.EnsureToken()
	}
	return c.do(ctx, http.MethodPost, "/outlets/"+url.PathEscape(outletID)+"/events", body, nil)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errorbank.Unavailable("ordering api unreachable", errorbank.WithCause(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errorbank.Internal(fmt.Sprintf("unexpected response (status %d)", resp.StatusCode), errorbank.WithCause(err))
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		if env.Error == nil {
			return errorbank.Internal(fmt.Sprintf("request failed with status %d", resp.StatusCode))
		}
		return errorbank.New(errorbank.Kind(env.Error.Kind), env.Error.Message, errorbank.WithDetails(env.Error.Details))
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
