package orders

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/moneris"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/pricing"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/railway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) GetEvent(ctx context.Context, id string) (railway.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(railway.Event), args.Error(1)
}

func (m *mockBackend) CreateTicketOrder(ctx context.Context, order railway.TicketOrder) (railway.TicketOrder, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(railway.TicketOrder), args.Error(1)
}

func (m *mockBackend) GetTicketOrder(ctx context.Context, id string) (railway.TicketOrder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(railway.TicketOrder), args.Error(1)
}

func (m *mockBackend) FindTicketOrderByCode(ctx context.Context, code string) (railway.TicketOrder, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(railway.TicketOrder), args.Error(1)
}

func (m *mockBackend) ConfirmTicketOrder(ctx context.Context, id, transactionID string) (bool, error) {
	args := m.Called(ctx, id, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockBackend) RecordRefund(ctx context.Context, id, status string, amount float64, reason, refundedAt string) (railway.TicketOrder, error) {
	args := m.Called(ctx, id, status, amount, reason, refundedAt)
	return args.Get(0).(railway.TicketOrder), args.Error(1)
}

func (m *mockBackend) DecrementInventory(ctx context.Context, eventID string, adult, child, family int) error {
	args := m.Called(ctx, eventID, adult, child, family)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateHostedCheckout(ctx context.Context, req moneris.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CheckoutRedirectURL(ticket string) string {
	return "https://pay.example.com/display?ticket=" + ticket
}

func (m *mockGateway) Refund(ctx context.Context, txnNumber, orderNo, amount string) error {
	args := m.Called(ctx, txnNumber, orderNo, amount)
	return args.Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendConfirmation(ctx context.Context, order railway.TicketOrder, event railway.Event) error {
	args := m.Called(ctx, order, event)
	return args.Error(0)
}

func newTestCoordinator() (*Coordinator, *mockBackend, *mockGateway, *mockMailer) {
	backend := &mockBackend{}
	gateway := &mockGateway{}
	mailer := &mockMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCoordinator(backend, gateway, mailer, logger), backend, gateway, mailer
}

func tierOneEvent() railway.Event {
	return railway.Event{
		ID:               "ev-1",
		Title:            "Friday Night Rodeo",
		Tier1Quantity:    100,
		Tier1AdultPrice:  30,
		Tier1FamilyPrice: 80,
		Tier2Quantity:    250,
		Tier2AdultPrice:  35,
		Tier2FamilyPrice: 90,
		Tier3Quantity:    400,
		Tier3AdultPrice:  40,
		Tier3FamilyPrice: 100,
	}
}

func pendingOrder() railway.TicketOrder {
	return railway.TicketOrder{
		ID:               "ord-1",
		EventID:          "ev-1",
		CustomerName:     "Dana Whitfield",
		CustomerEmail:    "dana@example.com",
		AdultQuantity:    2,
		ChildQuantity:    1,
		Status:           railway.OrderStatusPending,
		ConfirmationCode: "HR-7F3K2A",
		TotalPrice:       79.10,
	}
}

func TestInitiateRejectsZeroQuantities(t *testing.T) {
	co, backend, _, _ := newTestCoordinator()

	_, err := co.Initiate(context.Background(), InitiateRequest{
		EventID:       "ev-1",
		CustomerEmail: "dana@example.com",
	})

	var validation *helpers.ValidationError
	require.ErrorAs(t, err, &validation)
	backend.AssertNotCalled(t, "GetEvent", mock.Anything, mock.Anything)
}

func TestInitiateRejectsNegativeQuantities(t *testing.T) {
	co, _, _, _ := newTestCoordinator()

	_, err := co.Initiate(context.Background(), InitiateRequest{
		EventID:       "ev-1",
		CustomerEmail: "dana@example.com",
		Quantities:    pricing.Quantities{Adult: 2, Child: -1},
	})

	var validation *helpers.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestInitiateCreatesPendingOrderAndCheckoutSession(t *testing.T) {
	co, backend, gateway, _ := newTestCoordinator()

	backend.On("GetEvent", mock.Anything, "ev-1").Return(tierOneEvent(), nil)
	backend.On("CreateTicketOrder", mock.Anything, mock.MatchedBy(func(order railway.TicketOrder) bool {
		return order.Status == railway.OrderStatusPending &&
			order.AdultQuantity == 2 &&
			order.ChildQuantity == 1 &&
			order.TotalPrice == 79.10 &&
			order.ConfirmationCode != "" &&
			order.MonerisTransactionID == ""
	})).Return(pendingOrder(), nil)
	gateway.On("CreateHostedCheckout", mock.Anything, mock.MatchedBy(func(req moneris.CheckoutRequest) bool {
		return req.OrderNo == "HR-7F3K2A" && req.TxnTotal == "79.10"
	})).Return("tkt-1", nil)

	resp, err := co.Initiate(context.Background(), InitiateRequest{
		EventID:       "ev-1",
		CustomerName:  "Dana Whitfield",
		CustomerEmail: "dana@example.com",
		Quantities:    pricing.Quantities{Adult: 2, Child: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "tkt-1", resp.Ticket)
	assert.Contains(t, resp.RedirectURL, "ticket=tkt-1")
	assert.Equal(t, "79.10", resp.Quote.Total.StringFixed(2))
	assert.Equal(t, "9.10", resp.Quote.Tax.StringFixed(2))
	backend.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestInitiateGatewayFailureLeavesPendingOrder(t *testing.T) {
	co, backend, gateway, _ := newTestCoordinator()

	backend.On("GetEvent", mock.Anything, "ev-1").Return(tierOneEvent(), nil)
	backend.On("CreateTicketOrder", mock.Anything, mock.Anything).Return(pendingOrder(), nil)
	gateway.On("CreateHostedCheckout", mock.Anything, mock.Anything).
		Return("", &helpers.GatewayError{Message: "preload rejected"})

	_, err := co.Initiate(context.Background(), InitiateRequest{
		EventID:       "ev-1",
		CustomerEmail: "dana@example.com",
		Quantities:    pricing.Quantities{Adult: 1},
	})

	var gatewayErr *helpers.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	backend.AssertNumberOfCalls(t, "CreateTicketOrder", 1)
}

func TestConfirmByCodeTransitionsOnce(t *testing.T) {
	co, backend, _, mailer := newTestCoordinator()
	order := pendingOrder()

	backend.On("FindTicketOrderByCode", mock.Anything, "HR-7F3K2A").Return(order, nil)
	backend.On("ConfirmTicketOrder", mock.Anything, "ord-1", "txn-660022").Return(true, nil)
	backend.On("DecrementInventory", mock.Anything, "ev-1", 2, 1, 0).Return(nil)
	backend.On("GetEvent", mock.Anything, "ev-1").Return(tierOneEvent(), nil)
	mailer.On("SendConfirmation", mock.Anything, mock.MatchedBy(func(o railway.TicketOrder) bool {
		return o.Status == railway.OrderStatusConfirmed && o.MonerisTransactionID == "txn-660022"
	}), mock.Anything).Return(nil)

	result, err := co.ConfirmByCode(context.Background(), "HR-7F3K2A", "txn-660022")
	require.NoError(t, err)

	assert.False(t, result.AlreadyConfirmed)
	assert.True(t, result.EmailSent)
	assert.Equal(t, railway.OrderStatusConfirmed, result.Order.Status)
	backend.AssertNumberOfCalls(t, "DecrementInventory", 1)
	mailer.AssertNumberOfCalls(t, "SendConfirmation", 1)
}

func TestConfirmAlreadyConfirmedIsNoOp(t *testing.T) {
	co, backend, _, mailer := newTestCoordinator()
	order := pendingOrder()
	order.Status = railway.OrderStatusConfirmed
	order.MonerisTransactionID = "txn-660022"

	backend.On("FindTicketOrderByCode", mock.Anything, "HR-7F3K2A").Return(order, nil)

	result, err := co.ConfirmByCode(context.Background(), "HR-7F3K2A", "txn-660022")
	require.NoError(t, err)

	assert.True(t, result.AlreadyConfirmed)
	backend.AssertNotCalled(t, "ConfirmTicketOrder", mock.Anything, mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "DecrementInventory", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mailer.AssertNotCalled(t, "SendConfirmation", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmLostRaceSkipsSideEffects(t *testing.T) {
	co, backend, _, mailer := newTestCoordinator()

	backend.On("GetTicketOrder", mock.Anything, "ord-1").Return(pendingOrder(), nil)
	backend.On("ConfirmTicketOrder", mock.Anything, "ord-1", "txn-660022").Return(false, nil)

	result, err := co.ConfirmByID(context.Background(), "ord-1", "txn-660022")
	require.NoError(t, err)

	assert.True(t, result.AlreadyConfirmed, "losing the transition race reads as already confirmed")
	backend.AssertNotCalled(t, "DecrementInventory", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mailer.AssertNotCalled(t, "SendConfirmation", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmSideEffectFailuresDoNotRollBack(t *testing.T) {
	co, backend, _, mailer := newTestCoordinator()

	backend.On("FindTicketOrderByCode", mock.Anything, "HR-7F3K2A").Return(pendingOrder(), nil)
	backend.On("ConfirmTicketOrder", mock.Anything, "ord-1", "txn-660022").Return(true, nil)
	backend.On("DecrementInventory", mock.Anything, "ev-1", 2, 1, 0).
		Return(&helpers.UpstreamError{Status: 500, Body: "oops"})
	backend.On("GetEvent", mock.Anything, "ev-1").Return(tierOneEvent(), nil)
	mailer.On("SendConfirmation", mock.Anything, mock.Anything, mock.Anything).
		Return(&helpers.EmailError{Err: assert.AnError})

	result, err := co.ConfirmByCode(context.Background(), "HR-7F3K2A", "txn-660022")

	require.NoError(t, err, "payment was captured; confirmation must stand")
	assert.Equal(t, railway.OrderStatusConfirmed, result.Order.Status)
	assert.False(t, result.EmailSent)
}

func TestConfirmRefundedOrderIsRejected(t *testing.T) {
	co, backend, _, _ := newTestCoordinator()
	order := pendingOrder()
	order.Status = railway.OrderStatusRefunded

	backend.On("FindTicketOrderByCode", mock.Anything, "HR-7F3K2A").Return(order, nil)

	_, err := co.ConfirmByCode(context.Background(), "HR-7F3K2A", "txn-1")

	var validation *helpers.ValidationError
	require.ErrorAs(t, err, &validation)
	backend.AssertNotCalled(t, "ConfirmTicketOrder", mock.Anything, mock.Anything, mock.Anything)
}

func confirmedOrder() railway.TicketOrder {
	order := pendingOrder()
	order.Status = railway.OrderStatusConfirmed
	order.MonerisTransactionID = "txn-660022"
	return order
}

func TestRefundRejectsExcessAmountBeforeGatewayCall(t *testing.T) {
	co, backend, gateway, _ := newTestCoordinator()

	backend.On("GetTicketOrder", mock.Anything, "ord-1").Return(confirmedOrder(), nil)

	_, err := co.Refund(context.Background(), "ord-1", 100.00, "changed mind")

	var validation *helpers.ValidationError
	require.ErrorAs(t, err, &validation)
	gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundFullAmountMovesToRefunded(t *testing.T) {
	co, backend, gateway, _ := newTestCoordinator()
	order := confirmedOrder()

	backend.On("GetTicketOrder", mock.Anything, "ord-1").Return(order, nil)
	gateway.On("Refund", mock.Anything, "txn-660022", "HR-7F3K2A", "79.10").Return(nil)
	refunded := order
	refunded.Status = railway.OrderStatusRefunded
	backend.On("RecordRefund", mock.Anything, "ord-1", railway.OrderStatusRefunded, 79.10, "rained out", mock.Anything).
		Return(refunded, nil)

	result, err := co.Refund(context.Background(), "ord-1", 79.10, "rained out")
	require.NoError(t, err)
	assert.Equal(t, railway.OrderStatusRefunded, result.Status)
}

func TestRefundPartialAmountMovesToCancelled(t *testing.T) {
	co, backend, gateway, _ := newTestCoordinator()
	order := confirmedOrder()

	backend.On("GetTicketOrder", mock.Anything, "ord-1").Return(order, nil)
	gateway.On("Refund", mock.Anything, "txn-660022", "HR-7F3K2A", "30.00").Return(nil)
	cancelled := order
	cancelled.Status = railway.OrderStatusCancelled
	backend.On("RecordRefund", mock.Anything, "ord-1", railway.OrderStatusCancelled, 30.00, "one ticket returned", mock.Anything).
		Return(cancelled, nil)

	result, err := co.Refund(context.Background(), "ord-1", 30.00, "one ticket returned")
	require.NoError(t, err)
	assert.Equal(t, railway.OrderStatusCancelled, result.Status)
}

func TestRefundRecoversMissingTransactionID(t *testing.T) {
	co, backend, gateway, _ := newTestCoordinator()
	order := confirmedOrder()
	order.MonerisTransactionID = ""

	backend.On("GetTicketOrder", mock.Anything, "ord-1").Return(order, nil)
	backend.On("FindTicketOrderByCode", mock.Anything, "HR-7F3K2A").Return(confirmedOrder(), nil)
	gateway.On("Refund", mock.Anything, "txn-660022", "HR-7F3K2A", "79.10").Return(nil)
	backend.On("RecordRefund", mock.Anything, "ord-1", railway.OrderStatusRefunded, 79.10, "", mock.Anything).
		Return(confirmedOrder(), nil)

	_, err := co.Refund(context.Background(), "ord-1", 79.10, "")
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestRefundFailsPermanentlyWithoutTransactionID(t *testing.T) {
	co, backend, gateway, _ := newTestCoordinator()
	order := confirmedOrder()
	order.MonerisTransactionID = ""

	backend.On("GetTicketOrder", mock.Anything, "ord-1").Return(order, nil)
	backend.On("FindTicketOrderByCode", mock.Anything, "HR-7F3K2A").Return(order, nil)

	_, err := co.Refund(context.Background(), "ord-1", 79.10, "")

	var gatewayErr *helpers.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundRejectsPendingOrder(t *testing.T) {
	co, backend, gateway, _ := newTestCoordinator()

	backend.On("GetTicketOrder", mock.Anything, "ord-1").Return(pendingOrder(), nil)

	_, err := co.Refund(context.Background(), "ord-1", 10.00, "")

	var validation *helpers.ValidationError
	require.ErrorAs(t, err, &validation)
	gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
