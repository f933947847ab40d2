package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/compliance"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"golang.org/x/sync/errgroup"
)

// maxParallelEvaluations bounds concurrent rule evaluations per cart.
const maxParallelEvaluations = 8

// ComplianceClassifier gates a cart against the destination state's rules.
//
// Business rules:
//   - One blocked item blocks the whole cart
//   - Unknown or malformed state codes block every item (UNKNOWN_STATE)
//   - A rule evaluation error blocks the item (EVALUATION_FAILED)
//   - Blocking decisions are written to the audit log; passing checks are not
type ComplianceClassifier struct {
	rules  ports.ComplianceRules
	audit  ports.ComplianceAuditLog
	logger *slog.Logger
	now    func() time.Time
}

func NewComplianceClassifier(
	rules ports.ComplianceRules,
	audit ports.ComplianceAuditLog,
	logger *slog.Logger,
) *ComplianceClassifier {
	return &ComplianceClassifier{
		rules:  rules,
		audit:  audit,
		logger: logger.With("component", "compliance_classifier"),
		now:    time.Now,
	}
}

// CheckCartCompliance evaluates every item. It only returns an error when the
// context is cancelled; rule failures become blocking verdicts.
func (c *ComplianceClassifier) CheckCartCompliance(
	ctx context.Context,
	actor string,
	items []cart.Item,
	destination string,
) (compliance.Result, error) {
	verdicts := make([]compliance.Verdict, len(items))

	state, err := kernel.ParseStateCode(destination)
	if err != nil {
		for i := range items {
			verdicts[i] = compliance.Block(kernel.StateCode(destination), compliance.ReasonUnknownState,
				fmt.Sprintf("unknown destination state %q", destination))
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallelEvaluations)
		for i, it := range items {
			g.Go(func() error {
				v, evalErr := c.rules.Evaluate(gctx, state, it)
				if evalErr != nil {
					c.logger.WarnContext(gctx, "Compliance rule evaluation failed, blocking item",
						"sku", it.SKU(), "state", state, "error", evalErr)
					v = compliance.Block(state, compliance.ReasonEvaluationFailed, "")
				}
				verdicts[i] = v
				return nil
			})
		}
		_ = g.Wait()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return compliance.Result{}, ctxErr
		}
	}

	result := compliance.NewResult(items, verdicts)
	if !result.Allowed {
		c.recordBlock(ctx, actor, destination, result)
	}
	return result, nil
}

// recordBlock writes the audit entry. A failed write is logged and does not
// change the verdict.
func (c *ComplianceClassifier) recordBlock(ctx context.Context, actor, state string, result compliance.Result) {
	entry := compliance.NewAuditEntry(actor, state, result, c.now())
	if err := c.audit.Append(ctx, entry); err != nil {
		c.logger.ErrorContext(ctx, "Failed to write compliance audit entry",
			"actor", actor, "state", state, "blocked_skus", entry.BlockedSKUs, "error", err)
		return
	}
	c.logger.InfoContext(ctx, "Cart blocked by compliance rules",
		"actor", actor, "state", state, "blocked_skus", entry.BlockedSKUs, "reason_codes", entry.ReasonCodes)
}
