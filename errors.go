package smashsend

import (
	"errors"
	"fmt"

	"github.com/smashsend/smashsend-go/internal/core"
)

// Error taxonomy re-exported from core. Every failed call returns an *Error
// whose Kind is one of the constants below.
type (
	Error            = core.Error
	ErrorKind        = core.ErrorKind
	ValidationError  = core.ValidationError
	ProviderError    = core.ProviderError
	ProviderSettings = core.ProviderSettings
	Provider         = core.Provider
	RelayEmail       = core.Email
	Address          = core.Address
	SendResult       = core.SendResult
	BatchResult      = core.BatchResult
)

const (
	KindAPI            = core.KindAPI
	KindAuthentication = core.KindAuthentication
	KindNetwork        = core.KindNetwork
	KindRateLimit      = core.KindRateLimit
	KindTimeout        = core.KindTimeout
	KindClient         = core.KindClient
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrAPI            = core.ErrAPI
	ErrAuthentication = core.ErrAuthentication
	ErrNetwork        = core.ErrNetwork
	ErrRateLimit      = core.ErrRateLimit
	ErrTimeout        = core.ErrTimeout
	ErrClient         = core.ErrClient
)

// Helpers
var (
	NewValidationError = core.NewValidationError
	IsRetryable        = core.IsRetryable
	KindOf             = core.KindOf
	RequestIDOf        = core.RequestIDOf
)

// ErrRelayNoResult is the relay failure reported when a relay returns
// neither a result nor an error.
var ErrRelayNoResult = errors.New("smashsend: relay returned no result")

// RelayError is returned by EmailsService.Send when the API call failed and
// the fallback relay failed too. errors.As against *Error yields the API error.
type RelayError struct {
	// Err is the classified API error.
	Err error

	// Relay is the name of the relay provider that was tried.
	Relay string

	// RelayErr is the relay failure.
	RelayErr error
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	return fmt.Sprintf("%v (relay %s: %v)", e.Err, e.Relay, e.RelayErr)
}

// Unwrap exposes both failures to errors.Is and errors.As.
func (e *RelayError) Unwrap() []error {
	return []error{e.Err, e.RelayErr}
}

func invalidRequest(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return core.NewClientError(core.CodeInvalidRequest, ve.Error(), err)
	}
	return core.NewClientError(core.CodeInvalidRequest, err.Error(), err)
}
