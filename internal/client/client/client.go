package client

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
	"sync"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/dto"
)

// HTTPClient talks to the server API. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken replaces the bearer token sent with protected calls.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/register", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/login", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*dto.User, error) {
	var resp dto.MeResponse
	if err := c.do(ctx, http.MethodGet, "/me", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) FetchExpenses(ctx context.Context) ([]dto.Expense, error) {
	var resp dto.ExpensesResponse
	if err := c.do(ctx, http.MethodGet, "/expenses", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Expenses, nil
}

func (c *HTTPClient) PushExpenses(ctx context.Context, expenses []dto.Expense) (*dto.SubmitResponse, error) {
	var resp dto.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/expenses", dto.SubmitRequest{Expenses: expenses}, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) DeleteExpense(ctx context.Context, id string) error {
	var resp dto.StatusResponse
	return c.do(ctx, http.MethodDelete, "/expenses?id="+url.QueryEscape(id), nil, &resp, true)
}

func (c *HTTPClient) Export(ctx context.Context) (*dto.ExportResponse, error) {
	var resp dto.ExportResponse
	if err := c.do(ctx, http.MethodGet, "/expenses/export", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health reports the server's own view of its state. A 503 still decodes:
// the server is reachable but its database is not.
func (c *HTTPClient) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var resp dto.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp, false)
	var re *RemoteError
	if errors.As(err, &re) && re.Status == http.StatusServiceUnavailable {
		return &resp, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any, auth bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token := c.bearer()
		if token == "" {
			return ErrUnauthorized
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return mapTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RemoteError{Status: resp.StatusCode}
		var e dto.ErrorResponse
		if json.Unmarshal(data, &e) == nil {
			re.Code, re.Message = e.Code, e.Message
		}
		if out != nil {
			_ = json.Unmarshal(data, out)
		}
		return re
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrRemote, err)
	}
	return nil
}

// mapTransportError keeps caller cancellation as is; everything else means
// the server was not reached.
func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
