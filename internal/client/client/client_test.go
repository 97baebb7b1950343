package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewHTTPClient(ts.URL+"/", 2*time.Second)
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req dto.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@x.com", req.Email)

		writeBody(w, http.StatusOK, dto.AuthResponse{Success: true, User: dto.User{ID: "u1"}, Token: "t"})
	})

	resp, err := c.Login(context.Background(), dto.LoginRequest{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "t", resp.Token)
}

func TestProtectedCallsSendBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/expenses":
			writeBody(w, http.StatusOK, dto.ExpensesResponse{Success: true, Expenses: []dto.Expense{
				{ID: "e1", Amount: decimal.NewFromInt(-50)},
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/expenses":
			var req dto.SubmitRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			writeBody(w, http.StatusOK, dto.SubmitResponse{Success: true, Inserted: len(req.Expenses),
				Results: []dto.ItemResult{{ID: req.Expenses[0].ID, Status: dto.StatusInserted}}})
		case r.Method == http.MethodDelete:
			assert.Equal(t, "a b", r.URL.Query().Get("id"))
			writeBody(w, http.StatusOK, dto.StatusResponse{Success: true})
		default:
			http.NotFound(w, r)
		}
	})

	_, err := c.FetchExpenses(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized, "no token, no request")

	c.SetToken("tok")
	rows, err := c.FetchExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromInt(-50)))

	sub, err := c.PushExpenses(context.Background(), []dto.Expense{{ID: "e2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, sub.Accepted())

	require.NoError(t, c.DeleteExpense(context.Background(), "a b"))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   []error
	}{
		{"expired", http.StatusUnauthorized, "token_expired", []error{ErrUnauthorized, common.ErrTokenExpired, ErrRemote}},
		{"unauthorized", http.StatusUnauthorized, "unauthorized", []error{ErrUnauthorized, common.ErrorUnauthorized}},
		{"not found", http.StatusNotFound, "not_found", []error{common.ErrorNotFound, ErrRemote}},
		{"duplicate", http.StatusBadRequest, "already_exists", []error{common.ErrAlreadyExists}},
		{"invalid", http.StatusBadRequest, "invalid_input", []error{common.ErrValidation}},
		{"overloaded", http.StatusServiceUnavailable, "", []error{ErrUnavailable, ErrRemote}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeBody(w, tt.status, dto.ErrorResponse{Code: tt.code, Message: "nope"})
			})
			c.SetToken("tok")

			err := c.DeleteExpense(context.Background(), "x")
			require.Error(t, err)
			for _, target := range tt.want {
				assert.ErrorIs(t, err, target)
			}

			var re *RemoteError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.status, re.Status)
			assert.Equal(t, "nope", re.Message)
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c := NewHTTPClient(addr, time.Second)
	_, err := c.Health(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHealth_DegradedStillDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusServiceUnavailable, dto.HealthResponse{Success: false, Message: "database unavailable"})
	})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, h.Success)
	assert.Equal(t, "database unavailable", h.Message)
}

func TestMalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	c.SetToken("tok")

	_, err := c.Export(context.Background())
	assert.ErrorIs(t, err, ErrRemote)
}
