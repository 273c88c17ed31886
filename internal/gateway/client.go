package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mandil-capture-api/internal/model"
)

// Gateway is the remote laundry-compliance API the capture station
// pushes to and pulls reference data from.
type Gateway interface {
	// FetchOperators returns the full operator directory.
	FetchOperators(ctx context.Context) ([]model.Operator, error)

	// SubmitDelivery pushes one delivery record. A nil error means the
	// server accepted it; any transport or HTTP failure is returned
	// with a human-readable message.
	SubmitDelivery(ctx context.Context, d *model.Delivery) error
}

const (
	operatorsPath  = "/lavanderia/entrega-mandiles/usuarios-sync"
	deliveriesPath = "/lavanderia/entrega-mandiles"

	// maxErrorBody bounds how much of an error response lands in
	// persisted error messages.
	maxErrorBody = 256
)

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a gateway client. Requests fail after timeout
// rather than hanging; callers treat timeouts as retryable failures.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// operatorEnvelope is the server's list wrapper: { sms: "ok", data: [...] }.
type operatorEnvelope struct {
	Status string          `json:"sms"`
	Data   json.RawMessage `json:"data"`
}

// wireOperator is one entry of the usuarios-sync payload.
type wireOperator struct {
	ID        int64  `json:"pre_usuario_id"`
	Username  string `json:"usuario"`
	Code      string `json:"code"`
	FirstName string `json:"nombres"`
	LastName  string `json:"apellidos"`
	UpdatedAt string `json:"updated_at"`
}

// FetchOperators pulls the operator directory and unwraps the envelope.
// A payload whose data field is not a list fails fast.
func (c *Client) FetchOperators(ctx context.Context) ([]model.Operator, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+operatorsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build operators request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("operators request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("operators request failed: %s", httpErrorText(resp))
	}

	var envelope operatorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("invalid operators response: %w", err)
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("invalid operators response: data is not a list")
	}

	var wire []wireOperator
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("invalid operators response: %w", err)
	}

	operators := make([]model.Operator, len(wire))
	for i, w := range wire {
		operators[i] = model.Operator{
			ID:        w.ID,
			Username:  w.Username,
			Code:      w.Code,
			FirstName: w.FirstName,
			LastName:  w.LastName,
			UpdatedAt: w.UpdatedAt,
		}
	}
	return operators, nil
}

// deliveryPayload is the wire format for one delivery submission.
type deliveryPayload struct {
	RegistrationDate   string  `json:"fecha_registro"`
	Shift              string  `json:"turno"`
	OperatorCode       string  `json:"codigo_operario"`
	ProductDisplayed   bool    `json:"producto_expuesto"`
	ApronClean         bool    `json:"mandil_limpio"`
	ApronGoodCondition bool    `json:"mandil_buen_estado"`
	Notes              *string `json:"observaciones"`
}

// SubmitDelivery POSTs one record. The record uuid travels as an
// idempotency key header so an ambiguous failure retried later does not
// create a duplicate server-side entry.
func (c *Client) SubmitDelivery(ctx context.Context, d *model.Delivery) error {
	payload := deliveryPayload{
		RegistrationDate:   d.RegistrationDate,
		Shift:              d.Shift.WireValue(),
		OperatorCode:       d.OperatorCode,
		ProductDisplayed:   d.ProductDisplayed,
		ApronClean:         d.ApronClean,
		ApronGoodCondition: d.ApronGoodCondition,
	}
	if d.Notes != "" {
		payload.Notes = &d.Notes
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode delivery: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+deliveriesPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.UUID != "" {
		req.Header.Set("X-Idempotency-Key", d.UUID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delivery rejected: %s", httpErrorText(resp))
	}
	return nil
}

// httpErrorText builds a short human-readable message from an error
// response, suitable for persisting on a record.
func httpErrorText(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(body))
	if text == "" {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, text)
}

// Ensure Client implements Gateway
var _ Gateway = (*Client)(nil)
