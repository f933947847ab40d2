package compliance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/kernel"
)

// ErrComplianceBlocked is the sentinel behind BlockedError.
var ErrComplianceBlocked = errors.New("compliance blocked")

// Reason codes produced by the classifier itself. Rule-specific codes
// (NY_MAG_10, STATE_BLOCKED_CA, ...) come from the rule set.
const (
	ReasonUnknownState     = "UNKNOWN_STATE"
	ReasonEvaluationFailed = "EVALUATION_FAILED"
)

// Verdict is the outcome of evaluating one item against one destination.
type Verdict struct {
	Allowed      bool
	ReasonCode   string
	Reason       string
	RestrictedBy kernel.StateCode
}

func Allow() Verdict {
	return Verdict{Allowed: true}
}

// Block builds a blocking verdict. Reason defaults to "<STATE> restriction".
func Block(state kernel.StateCode, code, reason string) Verdict {
	if reason == "" {
		reason = fmt.Sprintf("%s restriction", state)
	}
	return Verdict{
		Allowed:      false,
		ReasonCode:   code,
		Reason:       reason,
		RestrictedBy: state,
	}
}

// BlockedItem pairs a cart line with the verdict that blocked it.
type BlockedItem struct {
	Item    cart.Item
	Verdict Verdict
}

// Result is all-or-nothing: one blocked item blocks the cart.
type Result struct {
	Allowed      bool
	BlockedItems []BlockedItem
}

// NewResult builds a Result from per-item verdicts kept in cart order.
func NewResult(items []cart.Item, verdicts []Verdict) Result {
	res := Result{Allowed: true}
	for i, v := range verdicts {
		if v.Allowed {
			continue
		}
		res.Allowed = false
		res.BlockedItems = append(res.BlockedItems, BlockedItem{Item: items[i], Verdict: v})
	}
	return res
}

// Err returns a *BlockedError when the cart is not allowed.
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return &BlockedError{Items: r.BlockedItems}
}

// BlockedError is the user-facing rejection of a cart.
type BlockedError struct {
	Items []BlockedItem
}

func (e *BlockedError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, b := range e.Items {
		parts = append(parts, fmt.Sprintf("%s: %s", b.Item.SKU(), b.Verdict.Reason))
	}
	return fmt.Sprintf("%s: %s", ErrComplianceBlocked, strings.Join(parts, "; "))
}

func (e *BlockedError) Unwrap() error {
	return ErrComplianceBlocked
}

// AuditEntry is one append-only record of a blocking decision.
type AuditEntry struct {
	Actor       string
	State       string
	BlockedSKUs []string
	ReasonCodes []string
	At          time.Time
}

// NewAuditEntry captures the blocked part of r. The raw destination is kept
// so that malformed state codes are still traceable.
func NewAuditEntry(actor, state string, r Result, at time.Time) AuditEntry {
	entry := AuditEntry{
		Actor: actor,
		State: state,
		At:    at.UTC(),
	}
	for _, b := range r.BlockedItems {
		entry.BlockedSKUs = append(entry.BlockedSKUs, b.Item.SKU())
		entry.ReasonCodes = append(entry.ReasonCodes, b.Verdict.ReasonCode)
	}
	return entry
}
