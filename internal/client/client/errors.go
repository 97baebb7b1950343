package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
)

var (
	// ErrUnavailable means the server could not be reached; retry later.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized means the token was refused; log in again.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRemote matches every error response the server produced.
	ErrRemote = errors.New("server error")
)

// RemoteError is a non-2xx answer decoded from the server's error body.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded %d", e.Status)
	}
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Message)
}

// Is lets callers match a RemoteError against the shared sentinels.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemote:
		return true
	case ErrUnauthorized, common.ErrorUnauthorized:
		return e.Status == http.StatusUnauthorized
	case common.ErrTokenExpired:
		return e.Code == "token_expired"
	case common.ErrorNotFound:
		return e.Status == http.StatusNotFound
	case common.ErrAlreadyExists:
		return e.Code == "already_exists"
	case common.ErrValidation:
		return e.Code == "invalid_input"
	case ErrUnavailable:
		return e.Status == http.StatusBadGateway ||
			e.Status == http.StatusServiceUnavailable ||
			e.Status == http.StatusGatewayTimeout
	}
	return false
}
