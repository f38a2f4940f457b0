package domain

import (
	"errors"
	"fmt"
)

// ProviderErrorKind classifies why a provider call did not yield labels.
type ProviderErrorKind string

const (
	ProviderUnconfigured ProviderErrorKind = "unconfigured"
	ProviderTimeout      ProviderErrorKind = "timeout"
	ProviderHTTPStatus   ProviderErrorKind = "http_status"
	ProviderTransport    ProviderErrorKind = "transport"
	ProviderReported     ProviderErrorKind = "provider"
	ProviderDecode       ProviderErrorKind = "decode"
	ProviderRateLimited  ProviderErrorKind = "rate_limited"
)

type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s (%d)", e.Provider, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// HTTPStatusCode lets retry helpers read the upstream status without importing this package.
func (e *ProviderError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

func NewProviderError(provider string, kind ProviderErrorKind, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Status: status, Err: err}
}

// ProviderErrorKindOf returns the kind of the first ProviderError in err's chain, or "" if none.
func ProviderErrorKindOf(err error) ProviderErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
