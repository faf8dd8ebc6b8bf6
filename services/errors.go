package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAlreadyIssued means issuance was attempted for an order that already has a
// gateway order. It is a programming error, never a retry path.
var ErrAlreadyIssued = errors.New("gateway order already issued for this record")

// ValidationError rejects an intake before anything is persisted.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DuplicatePayerError rejects an intake whose identity already has a live record.
type DuplicatePayerError struct {
	Kind  string
	Email string
}

func (e *DuplicatePayerError) Error() string {
	return fmt.Sprintf("a %s record for %s already exists", e.Kind, e.Email)
}

// GatewayUnavailableError is returned when the remote order could not be issued.
// The record has already been moved to failed; the caller retries with a new intake.
type GatewayUnavailableError struct {
	OrderID string
	Err     error
}

func (e *GatewayUnavailableError) Error() string {
	return fmt.Sprintf("payment gateway unavailable for order %s: %v", e.OrderID, e.Err)
}

func (e *GatewayUnavailableError) Unwrap() error { return e.Err }

type SignatureMismatchError struct {
	GatewayOrderID string
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("signature mismatch for gateway order %s", e.GatewayOrderID)
}

type RecordNotFoundError struct {
	GatewayOrderID string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("no record for gateway order %s", e.GatewayOrderID)
}

// FulfillmentError is logged and never returned to a payment caller.
type FulfillmentError struct {
	OrderID string
	Step    string
	Err     error
}

func (e *FulfillmentError) Error() string {
	return fmt.Sprintf("fulfillment step %q failed for order %s: %v", e.Step, e.OrderID, e.Err)
}

func (e *FulfillmentError) Unwrap() error { return e.Err }
