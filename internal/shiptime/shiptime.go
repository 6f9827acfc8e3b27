// Package shiptime fetches carrier rate quotes for merchandise orders.
// Shipping is never a hard blocker to checkout: any provider failure falls
// back to a single flat default rate.
package shiptime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

type Client struct {
	baseURL  string
	username string
	password string
	hc       *http.Client
	logger   *slog.Logger
}

func NewClient(baseURL, username, password string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		hc:       &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"countryCode"`
}

type Package struct {
	WeightKg float64 `json:"weight"`
	LengthCm float64 `json:"length"`
	WidthCm  float64 `json:"width"`
	HeightCm float64 `json:"height"`
}

type RateRequest struct {
	From     Address   `json:"from"`
	To       Address   `json:"to"`
	Packages []Package `json:"lineItems"`
}

type Rate struct {
	Carrier     string  `json:"carrier"`
	Service     string  `json:"service"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
	TransitDays int     `json:"transit_days"`
}

type ratesEnvelope struct {
	AvailableRates []struct {
		CarrierName string  `json:"carrierName"`
		ServiceName string  `json:"serviceName"`
		TotalCharge float64 `json:"totalCharge"`
		Currency    string  `json:"currency"`
		TransitDays int     `json:"transitDays"`
	} `json:"availableRates"`
}

// DefaultRate is the synthetic quote returned whenever the provider cannot
// answer; callers always get at least one priced entry.
func DefaultRate() Rate {
	return Rate{Carrier: "Standard", Service: "Ground", Total: 15.00, Currency: "CAD", TransitDays: 7}
}

// GetRates returns quotes sorted ascending by price. Missing credentials or
// any provider failure yields exactly one default rate, never an empty list.
func (c *Client) GetRates(ctx context.Context, req RateRequest) []Rate {
	if c.username == "" || c.password == "" {
		c.logger.Warn("shiptime credentials missing, using default rate")
		return []Rate{DefaultRate()}
	}

	rates, err := c.fetchRates(ctx, req)
	if err != nil {
		c.logger.Error("shiptime rate quote failed, using default rate", "error", err)
		return []Rate{DefaultRate()}
	}
	if len(rates) == 0 {
		return []Rate{DefaultRate()}
	}

	sort.Slice(rates, func(i, j int) bool {
		return rates[i].Total < rates[j].Total
	})
	return rates
}

func (c *Client) fetchRates(ctx context.Context, req RateRequest) ([]Rate, error) {
	body, _ := json.Marshal(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/rates", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.username, c.password)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("shiptime returned %d: %s", resp.StatusCode, respBody)
	}

	var envelope ratesEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("unparseable rates response: %w", err)
	}

	rates := make([]Rate, 0, len(envelope.AvailableRates))
	for _, r := range envelope.AvailableRates {
		rates = append(rates, Rate{
			Carrier:     r.CarrierName,
			Service:     r.ServiceName,
			Total:       r.TotalCharge,
			Currency:    r.Currency,
			TransitDays: r.TransitDays,
		})
	}
	return rates, nil
}

type ShipmentRequest struct {
	From     Address   `json:"from"`
	To       Address   `json:"to"`
	Packages []Package `json:"lineItems"`
	Carrier  string    `json:"carrier"`
	Service  string    `json:"service"`
}

type Shipment struct {
	ID         string `json:"shipmentId"`
	TrackingNo string `json:"trackingNumber"`
	LabelURL   string `json:"labelUrl"`
}

// CreateShipment books a shipment for a fulfilled merchandise order. Unlike
// rate quotes this is a hard call; failures surface to the caller.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (Shipment, error) {
	body, _ := json.Marshal(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/shipments", bytes.NewReader(body))
	if err != nil {
		return Shipment{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.username, c.password)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return Shipment{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Shipment{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Shipment{}, fmt.Errorf("shiptime returned %d: %s", resp.StatusCode, respBody)
	}

	var shipment Shipment
	if err := json.Unmarshal(respBody, &shipment); err != nil {
		return Shipment{}, fmt.Errorf("unparseable shipment response: %w", err)
	}
	return shipment, nil
}
