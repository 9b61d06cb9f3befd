// Package api is a client for the Housegur REST API: login, the property
// catalogue, holdings and token transactions.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// statusOK is the value of the "status" field on successful responses
const statusOK = "ok"

// Row is one JSON object returned by the API. Fields vary by deployment so
// they are kept as decoded.
type Row map[string]any

// HTTPError reports a non-2xx response
type HTTPError struct {
	Code int
	Body string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// StatusError reports a 2xx response whose status field is not "ok"
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %q", e.Status)
	}
	return fmt.Sprintf("status %q: %s", e.Status, e.Message)
}

// ErrMalformedResponse is returned when a response body cannot be decoded
var ErrMalformedResponse = errors.New("malformed response")

// Client talks to the Housegur REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL. A zero timeout keeps the transport default.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LoginResult is the identity returned by a successful login
type LoginResult struct {
	UserID string
	Name   string
}

// Login signs in with a name and an email
func (c *Client) Login(ctx context.Context, name, email string) (*LoginResult, error) {
	var row Row
	body := map[string]string{"nombre": name, "email": email}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &row); err != nil {
		return nil, fmt.Errorf("api: login: %w", err)
	}
	if err := checkStatus(row); err != nil {
		return nil, fmt.Errorf("api: login: %w", err)
	}

	id := scalarString(row["usuario_id"])
	if id == "" {
		id = scalarString(row["user_id"])
	}
	if id == "" {
		return nil, fmt.Errorf("api: login: %w: missing usuario_id", ErrMalformedResponse)
	}

	result := &LoginResult{UserID: id, Name: scalarString(row["nombre"])}
	if result.Name == "" {
		result.Name = name
	}
	return result, nil
}

// Properties lists the property catalogue
func (c *Client) Properties(ctx context.Context) ([]Row, error) {
	rows, err := c.list(ctx, "/properties", nil, "properties", "propiedades")
	if err != nil {
		return nil, fmt.Errorf("api: properties: %w", err)
	}
	return rows, nil
}

// Holdings lists the tokens owned by userID
func (c *Client) Holdings(ctx context.Context, userID string) ([]Row, error) {
	query := url.Values{"user_id": {userID}}
	rows, err := c.list(ctx, "/holdings", query, "holdings", "tokens")
	if err != nil {
		return nil, fmt.Errorf("api: holdings: %w", err)
	}
	return rows, nil
}

// Trade is a buy or sell order
type Trade struct {
	UserID     string
	PropertyID string
	Tokens     int
}

// Buy purchases tokens of a property
func (c *Client) Buy(ctx context.Context, trade Trade) (Row, error) {
	row, err := c.transact(ctx, "/transactions/buy", trade)
	if err != nil {
		return nil, fmt.Errorf("api: buy: %w", err)
	}
	return row, nil
}

// Sell sells tokens of a property
func (c *Client) Sell(ctx context.Context, trade Trade) (Row, error) {
	row, err := c.transact(ctx, "/transactions/sell", trade)
	if err != nil {
		return nil, fmt.Errorf("api: sell: %w", err)
	}
	return row, nil
}

func (c *Client) transact(ctx context.Context, path string, trade Trade) (Row, error) {
	if trade.Tokens <= 0 {
		return nil, fmt.Errorf("tokens must be positive, got %d", trade.Tokens)
	}
	body := map[string]any{
		"user_id":     jsonID(trade.UserID),
		"property_id": jsonID(trade.PropertyID),
		"tokens":      trade.Tokens,
	}

	var row Row
	if err := c.do(ctx, http.MethodPost, path, nil, body, &row); err != nil {
		return nil, err
	}
	if err := checkStatus(row); err != nil {
		return nil, err
	}
	return row, nil
}

// list fetches a collection. The body is either an array or an object
// holding the array under one of keys (or "data"/"items").
func (c *Client) list(ctx context.Context, path string, query url.Values, keys ...string) ([]Row, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}

	var rows []Row
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if _, ok := obj["status"]; ok {
		var row Row
		if err := json.Unmarshal(raw, &row); err == nil {
			if err := checkStatus(row); err != nil {
				return nil, err
			}
		}
	}
	for _, key := range append(keys, "data", "items") {
		field, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(field, &rows); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformedResponse, key, err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: no list in response", ErrMalformedResponse)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	slog.Debug("api.request", "request_id", requestID, "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// checkStatus enforces the status discriminator when it is present
func checkStatus(row Row) error {
	raw, ok := row["status"]
	if !ok {
		return nil
	}
	status := scalarString(raw)
	if status == statusOK {
		return nil
	}
	message := scalarString(row["message"])
	if message == "" {
		message = scalarString(row["mensaje"])
	}
	if message == "" {
		message = scalarString(row["detail"])
	}
	return &StatusError{Status: status, Message: message}
}

// scalarString renders a JSON scalar as text. Whole numbers print without
// a decimal part.
func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case bool:
		return fmt.Sprintf("%t", x)
	case json.Number:
		return x.String()
	default:
		data, _ := json.Marshal(x)
		return string(data)
	}
}

// jsonID sends numeric ids as numbers, which the API expects
func jsonID(id string) any {
	n := json.Number(id)
	if _, err := n.Int64(); err == nil {
		return n
	}
	return id
}
