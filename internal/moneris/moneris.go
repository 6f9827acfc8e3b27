// Package moneris adapts the two Moneris surfaces this system touches: the
// hosted-checkout (MCO) preload API, which collects card details outside our
// boundary, and the legacy gateway2 API used for refunds.
package moneris

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
)

type Client struct {
	baseURL     string
	storeID     string
	apiToken    string
	checkoutID  string
	checkoutURL string
	hc          *http.Client
	logger      *slog.Logger
}

func NewClient(baseURL, storeID, apiToken, checkoutID, checkoutURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		storeID:     storeID,
		apiToken:    apiToken,
		checkoutID:  checkoutID,
		checkoutURL: checkoutURL,
		hc:          &http.Client{Timeout: 20 * time.Second},
		logger:      logger,
	}
}

type CheckoutRequest struct {
	OrderNo  string
	TxnTotal string
	Name     string
	Email    string
	Phone    string
}

type preloadRequest struct {
	StoreID        string         `json:"store_id"`
	APIToken       string         `json:"api_token"`
	CheckoutID     string         `json:"checkout_id"`
	Action         string         `json:"action"`
	TxnTotal       string         `json:"txn_total"`
	OrderNo        string         `json:"order_no"`
	ContactDetails contactDetails `json:"contact_details"`
}

type contactDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// preloadEnvelope is Moneris' non-standard reply: success lives in a nested
// object as the string "true", not in the HTTP status.
type preloadEnvelope struct {
	Response struct {
		Success string          `json:"success"`
		Ticket  string          `json:"ticket"`
		Error   json.RawMessage `json:"error"`
	} `json:"response"`
}

// CreateHostedCheckout preloads a checkout session keyed by the order's
// confirmation code and returns the session ticket. An HTTP 200 with
// response.success != "true" is a gateway failure, never a success.
func (c *Client) CreateHostedCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	body, _ := json.Marshal(preloadRequest{
		StoreID:    c.storeID,
		APIToken:   c.apiToken,
		CheckoutID: c.checkoutID,
		Action:     "preload",
		TxnTotal:   req.TxnTotal,
		OrderNo:    req.OrderNo,
		ContactDetails: contactDetails{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
		},
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chkt/request/request.php", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return "", &helpers.GatewayError{Message: fmt.Sprintf("hosted checkout request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &helpers.GatewayError{Message: "failed to read hosted checkout response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &helpers.UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var envelope preloadEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", &helpers.GatewayError{Message: "unparseable hosted checkout response"}
	}

	if envelope.Response.Success != "true" || envelope.Response.Ticket == "" {
		c.logger.Error("hosted checkout preload rejected",
			"order_no", req.OrderNo,
			"error", string(envelope.Response.Error))
		return "", &helpers.GatewayError{Message: "hosted checkout preload rejected"}
	}

	return envelope.Response.Ticket, nil
}

// CheckoutRedirectURL builds the hosted page URL for a preloaded ticket.
func (c *Client) CheckoutRedirectURL(ticket string) string {
	return c.checkoutURL + "?ticket=" + ticket
}

type refundRequest struct {
	XMLName  xml.Name      `xml:"request"`
	StoreID  string        `xml:"store_id"`
	APIToken string        `xml:"api_token"`
	Refund   refundDetails `xml:"refund"`
}

type refundDetails struct {
	OrderID   string `xml:"order_id"`
	TxnNumber string `xml:"txn_number"`
	Amount    string `xml:"amount"`
	CryptType string `xml:"crypt_type"`
}

var responseCodePattern = regexp.MustCompile(`<ResponseCode>\s*([^<]*?)\s*</ResponseCode>`)

// Refund submits a refund through the gateway2 send endpoint. Success is not
// signaled by HTTP status or JSON: the receipt is a semi-structured body
// carrying a numeric ResponseCode sentinel, approved when below 50.
func (c *Client) Refund(ctx context.Context, txnNumber, orderNo, amount string) error {
	body, err := xml.Marshal(refundRequest{
		StoreID:  c.storeID,
		APIToken: c.apiToken,
		Refund: refundDetails{
			OrderID:   orderNo,
			TxnNumber: txnNumber,
			Amount:    amount,
			CryptType: "7",
		},
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/gateway2/servlet/MpgRequest", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "text/xml")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return &helpers.GatewayError{Message: fmt.Sprintf("refund request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &helpers.GatewayError{Message: "failed to read refund response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &helpers.UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	code, ok := extractResponseCode(string(respBody))
	if !ok {
		c.logger.Error("refund receipt had no usable response code", "order_no", orderNo)
		return &helpers.GatewayError{Message: "refund receipt had no usable response code"}
	}

	if code >= 50 {
		return &helpers.GatewayError{Message: "refund declined", Code: strconv.Itoa(code)}
	}

	return nil
}

// extractResponseCode digs the sentinel out of the receipt body. Moneris
// sends "null" (literally) for transactions it could not process.
func extractResponseCode(body string) (int, bool) {
	match := responseCodePattern.FindStringSubmatch(body)
	if match == nil {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(match[1]))
	if err != nil {
		return 0, false
	}
	return code, true
}

// WebhookPayload is the asynchronous transaction report Moneris posts back
// after a hosted-checkout session completes.
type WebhookPayload struct {
	OrderNo      string `json:"order_no"`
	ResponseCode string `json:"response_code"`
	TxnNum       string `json:"txn_num"`
	ChargeTotal  string `json:"charge_total"`
}

// Approved reports whether the payment went through. Approval codes are
// numeric and below 50; "000" is the usual success value.
func (p WebhookPayload) Approved() bool {
	code, err := strconv.Atoi(strings.TrimSpace(p.ResponseCode))
	if err != nil {
		return false
	}
	return code < 50
}
