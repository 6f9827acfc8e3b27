// Package orders coordinates the ticket order lifecycle: checkout
// initiation, payment confirmation (webhook or manual, both converging on
// the same final state) and refunds.
package orders

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/moneris"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/pricing"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/railway"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Backend is the slice of the Railway client the coordinator needs.
type Backend interface {
	GetEvent(ctx context.Context, id string) (railway.Event, error)
	CreateTicketOrder(ctx context.Context, order railway.TicketOrder) (railway.TicketOrder, error)
	GetTicketOrder(ctx context.Context, id string) (railway.TicketOrder, error)
	FindTicketOrderByCode(ctx context.Context, code string) (railway.TicketOrder, error)
	ConfirmTicketOrder(ctx context.Context, id, transactionID string) (bool, error)
	RecordRefund(ctx context.Context, id, status string, amount float64, reason, refundedAt string) (railway.TicketOrder, error)
	DecrementInventory(ctx context.Context, eventID string, adult, child, family int) error
}

type Gateway interface {
	CreateHostedCheckout(ctx context.Context, req moneris.CheckoutRequest) (string, error)
	CheckoutRedirectURL(ticket string) string
	Refund(ctx context.Context, txnNumber, orderNo, amount string) error
}

type Mailer interface {
	SendConfirmation(ctx context.Context, order railway.TicketOrder, event railway.Event) error
}

type Coordinator struct {
	backend Backend
	gateway Gateway
	mailer  Mailer
	logger  *slog.Logger

	// per-confirmation-code locks serialize racing webhook and manual
	// confirmations within this process; the backend's conditional update
	// is still the authority on who performed the transition.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoordinator(backend Backend, gateway Gateway, mailer Mailer, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		backend: backend,
		gateway: gateway,
		mailer:  mailer,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (co *Coordinator) lock(code string) func() {
	co.mu.Lock()
	m, ok := co.locks[code]
	if !ok {
		m = &sync.Mutex{}
		co.locks[code] = m
	}
	co.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// NewConfirmationCode generates the human-shown, system-unique order
// identifier. It doubles as the idempotency key between the webhook and
// manual confirmation paths, and is never reused.
func NewConfirmationCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "HR-" + strings.ToUpper(raw[:8])
}

type InitiateRequest struct {
	EventID       string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Quantities    pricing.Quantities
}

type InitiateResponse struct {
	Order       railway.TicketOrder
	Quote       pricing.Quote
	Ticket      string
	RedirectURL string
}

// Initiate validates the request, prices it at the event's active tier,
// creates a pending order and preloads a hosted-checkout session keyed by
// the order's confirmation code.
func (co *Coordinator) Initiate(ctx context.Context, req InitiateRequest) (InitiateResponse, error) {
	q := req.Quantities
	if q.Adult < 0 || q.Child < 0 || q.Family < 0 || q.BarCredits < 0 {
		return InitiateResponse{}, &helpers.ValidationError{Message: "quantities must not be negative"}
	}
	if q.TicketCount() == 0 {
		return InitiateResponse{}, &helpers.ValidationError{Message: "at least one ticket is required"}
	}
	if req.CustomerEmail == "" {
		return InitiateResponse{}, &helpers.ValidationError{Message: "customer email is required"}
	}

	event, err := co.backend.GetEvent(ctx, req.EventID)
	if err != nil {
		return InitiateResponse{}, err
	}

	tier := pricing.Resolve(event)
	quote := pricing.QuoteOrder(tier, q)

	order := railway.TicketOrder{
		EventID:          event.ID,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		AdultQuantity:    q.Adult,
		ChildQuantity:    q.Child,
		FamilyQuantity:   q.Family,
		BarCredits:       q.BarCredits,
		Status:           railway.OrderStatusPending,
		ConfirmationCode: NewConfirmationCode(),
		TotalPrice:       quote.Total.Round(2).InexactFloat64(),
	}

	created, err := co.backend.CreateTicketOrder(ctx, order)
	if err != nil {
		return InitiateResponse{}, err
	}

	ticket, err := co.gateway.CreateHostedCheckout(ctx, moneris.CheckoutRequest{
		OrderNo:  created.ConfirmationCode,
		TxnTotal: quote.Total.StringFixed(2),
		Name:     req.CustomerName,
		Email:    req.CustomerEmail,
		Phone:    req.CustomerPhone,
	})
	if err != nil {
		// The pending order stays behind; payment never started, so there
		// is nothing to converge.
		return InitiateResponse{}, err
	}

	return InitiateResponse{
		Order:       created,
		Quote:       quote,
		Ticket:      ticket,
		RedirectURL: co.gateway.CheckoutRedirectURL(ticket),
	}, nil
}

type ConfirmResult struct {
	Order            railway.TicketOrder
	AlreadyConfirmed bool
	EmailSent        bool
}

// ConfirmByCode handles the asynchronous webhook path, keyed by the
// confirmation code Moneris echoes back as order_no.
func (co *Coordinator) ConfirmByCode(ctx context.Context, code, transactionID string) (ConfirmResult, error) {
	unlock := co.lock(code)
	defer unlock()

	order, err := co.backend.FindTicketOrderByCode(ctx, code)
	if err != nil {
		return ConfirmResult{}, err
	}
	return co.confirm(ctx, order, transactionID)
}

// ConfirmByID handles the synchronous redirect path, keyed by order id.
func (co *Coordinator) ConfirmByID(ctx context.Context, id, transactionID string) (ConfirmResult, error) {
	order, err := co.backend.GetTicketOrder(ctx, id)
	if err != nil {
		return ConfirmResult{}, err
	}

	unlock := co.lock(order.ConfirmationCode)
	defer unlock()

	return co.confirm(ctx, order, transactionID)
}

// confirm drives the pending-to-confirmed transition. Confirming an already
// confirmed order is a success with zero side effects; inventory and email
// are best-effort once payment has been captured. The order record is the
// source of truth and is never rolled back.
func (co *Coordinator) confirm(ctx context.Context, order railway.TicketOrder, transactionID string) (ConfirmResult, error) {
	switch order.Status {
	case railway.OrderStatusConfirmed:
		return ConfirmResult{Order: order, AlreadyConfirmed: true}, nil
	case railway.OrderStatusRefunded, railway.OrderStatusCancelled:
		return ConfirmResult{}, &helpers.ValidationError{
			Message: "order is " + order.Status + " and cannot be confirmed",
		}
	}

	transitioned, err := co.backend.ConfirmTicketOrder(ctx, order.ID, transactionID)
	if err != nil {
		return ConfirmResult{}, err
	}

	order.Status = railway.OrderStatusConfirmed
	if !transitioned {
		// Another path won the race; their confirm already ran the side
		// effects.
		return ConfirmResult{Order: order, AlreadyConfirmed: true}, nil
	}
	order.MonerisTransactionID = transactionID

	result := ConfirmResult{Order: order}

	if err := co.backend.DecrementInventory(ctx, order.EventID, order.AdultQuantity, order.ChildQuantity, order.FamilyQuantity); err != nil {
		co.logger.Error("inventory decrement failed after confirmation",
			"confirmation_code", order.ConfirmationCode,
			"event_id", order.EventID,
			"error", err)
	}

	event, err := co.backend.GetEvent(ctx, order.EventID)
	if err != nil {
		co.logger.Error("event lookup failed, skipping confirmation email",
			"confirmation_code", order.ConfirmationCode,
			"error", err)
		return result, nil
	}

	if err := co.mailer.SendConfirmation(ctx, order, event); err != nil {
		co.logger.Error("confirmation email failed",
			"confirmation_code", order.ConfirmationCode,
			"error", err)
		return result, nil
	}

	result.EmailSent = true
	return result, nil
}

// Refund submits a refund for a confirmed order. A full-amount refund moves
// the order to refunded; a partial one to cancelled (the backend has always
// recorded partials this way; renaming it would strand historical rows).
func (co *Coordinator) Refund(ctx context.Context, id string, amount float64, reason string) (railway.TicketOrder, error) {
	order, err := co.backend.GetTicketOrder(ctx, id)
	if err != nil {
		return railway.TicketOrder{}, err
	}

	if order.Status != railway.OrderStatusConfirmed {
		return railway.TicketOrder{}, &helpers.ValidationError{
			Message: "only confirmed orders can be refunded",
		}
	}

	transactionID := order.MonerisTransactionID
	if transactionID == "" {
		// One recovery attempt through the confirmation-code lookup, then
		// fail permanently.
		recovered, err := co.backend.FindTicketOrderByCode(ctx, order.ConfirmationCode)
		if err == nil {
			transactionID = recovered.MonerisTransactionID
		}
		if transactionID == "" {
			return railway.TicketOrder{}, &helpers.GatewayError{
				Message: "no gateway transaction recorded for order " + order.ConfirmationCode,
			}
		}
	}

	amt := decimal.NewFromFloat(amount)
	total := decimal.NewFromFloat(order.TotalPrice)
	if amt.LessThanOrEqual(decimal.Zero) {
		return railway.TicketOrder{}, &helpers.ValidationError{Message: "refund amount must be positive"}
	}
	if amt.GreaterThan(total) {
		return railway.TicketOrder{}, &helpers.ValidationError{Message: "refund amount exceeds order total"}
	}

	if err := co.gateway.Refund(ctx, transactionID, order.ConfirmationCode, amt.StringFixed(2)); err != nil {
		return railway.TicketOrder{}, err
	}

	status := railway.OrderStatusCancelled
	if amt.Equal(total) {
		status = railway.OrderStatusRefunded
	}

	return co.backend.RecordRefund(ctx, order.ID, status, amount, reason, time.Now().UTC().Format(time.RFC3339))
}
