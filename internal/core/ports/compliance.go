package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/compliance"
	"fulfillment/internal/core/domain/model/kernel"
)

// ComplianceRules decides whether one item may ship to a state.
// An error means the rule set could not be evaluated; callers fail closed.
type ComplianceRules interface {
	Evaluate(ctx context.Context, state kernel.StateCode, item cart.Item) (compliance.Verdict, error)
}

// ComplianceAuditLog is the append-only record of blocking decisions.
type ComplianceAuditLog interface {
	Append(ctx context.Context, entry compliance.AuditEntry) error
}
