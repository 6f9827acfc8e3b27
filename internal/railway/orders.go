package railway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
)

func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.Request(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (Event, error) {
	var event Event
	err := c.Request(ctx, http.MethodGet, "/api/events/"+id, nil, &event)
	if err != nil {
		var upstream *helpers.UpstreamError
		if errors.As(err, &upstream) && upstream.Status == http.StatusNotFound {
			return Event{}, &helpers.NotFoundError{Resource: "event"}
		}
		return Event{}, err
	}
	return event, nil
}

func (c *Client) UpdateEventPricing(ctx context.Context, id string, update PricingUpdate) (Event, error) {
	var event Event
	if err := c.Request(ctx, http.MethodPut, "/api/events/"+id, update, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

type inventoryDecrement struct {
	AdultQuantity  int `json:"adult_quantity"`
	ChildQuantity  int `json:"child_quantity"`
	FamilyQuantity int `json:"family_quantity"`
}

// DecrementInventory moves the event's tickets_sold counter forward by the
// order's quantities after a confirmed sale.
func (c *Client) DecrementInventory(ctx context.Context, eventID string, adult, child, family int) error {
	body := inventoryDecrement{AdultQuantity: adult, ChildQuantity: child, FamilyQuantity: family}
	return c.Request(ctx, http.MethodPost, "/api/events/"+eventID+"/decrement-inventory", body, nil)
}

func (c *Client) CreateTicketOrder(ctx context.Context, order TicketOrder) (TicketOrder, error) {
	var created TicketOrder
	if err := c.Request(ctx, http.MethodPost, "/api/ticket-orders", order, &created); err != nil {
		return TicketOrder{}, err
	}
	return created, nil
}

func (c *Client) GetTicketOrder(ctx context.Context, id string) (TicketOrder, error) {
	var order TicketOrder
	err := c.Request(ctx, http.MethodGet, "/api/ticket-orders/"+id, nil, &order)
	if err != nil {
		var upstream *helpers.UpstreamError
		if errors.As(err, &upstream) && upstream.Status == http.StatusNotFound {
			return TicketOrder{}, &helpers.NotFoundError{Resource: "ticket order"}
		}
		return TicketOrder{}, err
	}
	return order, nil
}

// FindTicketOrderByCode looks an order up by its confirmation code. The
// match is case-exact: the code is the idempotency key between the webhook
// and manual confirmation paths, so near-misses must not resolve.
func (c *Client) FindTicketOrderByCode(ctx context.Context, code string) (TicketOrder, error) {
	var orders []TicketOrder
	path := "/api/ticket-orders?confirmation_code=" + code
	if err := c.Request(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return TicketOrder{}, err
	}
	for _, order := range orders {
		if order.ConfirmationCode == code {
			return order, nil
		}
	}
	return TicketOrder{}, &helpers.NotFoundError{Resource: "ticket order"}
}

// SearchTicketOrdersByCustomer matches on customer name, case-insensitive
// substring (unlike confirmation-code lookups, which are case-exact).
func (c *Client) SearchTicketOrdersByCustomer(ctx context.Context, name string) ([]TicketOrder, error) {
	var orders []TicketOrder
	if err := c.Request(ctx, http.MethodGet, "/api/ticket-orders", nil, &orders); err != nil {
		return nil, err
	}

	needle := strings.ToLower(name)
	matched := make([]TicketOrder, 0)
	for _, order := range orders {
		if strings.Contains(strings.ToLower(order.CustomerName), needle) {
			matched = append(matched, order)
		}
	}
	return matched, nil
}

type confirmRequest struct {
	MonerisTransactionID string `json:"moneris_transaction_id"`
}

// ConfirmTicketOrder performs the pending-to-confirmed transition as a
// single conditional update at the backend. It reports whether this call
// performed the transition: the backend answers 409 when the order is no
// longer pending, which is not an error here.
func (c *Client) ConfirmTicketOrder(ctx context.Context, id, transactionID string) (bool, error) {
	body := confirmRequest{MonerisTransactionID: transactionID}
	err := c.Request(ctx, http.MethodPatch, "/api/ticket-orders/"+id+"/confirm", body, nil)
	if err != nil {
		var upstream *helpers.UpstreamError
		if errors.As(err, &upstream) && upstream.Status == http.StatusConflict {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type refundUpdate struct {
	Status       string  `json:"status"`
	RefundAmount float64 `json:"refund_amount"`
	RefundReason string  `json:"refund_reason"`
	RefundedAt   string  `json:"refunded_at"`
}

func (c *Client) RecordRefund(ctx context.Context, id, status string, amount float64, reason, refundedAt string) (TicketOrder, error) {
	body := refundUpdate{Status: status, RefundAmount: amount, RefundReason: reason, RefundedAt: refundedAt}
	var order TicketOrder
	if err := c.Request(ctx, http.MethodPatch, "/api/ticket-orders/"+id, body, &order); err != nil {
		return TicketOrder{}, err
	}
	return order, nil
}

func (c *Client) ListStaff(ctx context.Context) (json.RawMessage, error) {
	return c.relay(ctx, "/api/staff")
}

func (c *Client) ListShifts(ctx context.Context) (json.RawMessage, error) {
	return c.relay(ctx, "/api/shifts")
}

func (c *Client) DashboardStats(ctx context.Context) (json.RawMessage, error) {
	return c.relay(ctx, "/api/dashboard/stats")
}

// relay passes a backend payload through untouched; the management screens
// own these shapes, not us.
func (c *Client) relay(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Request(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("relaying %s: %w", path, err)
	}
	return raw, nil
}
