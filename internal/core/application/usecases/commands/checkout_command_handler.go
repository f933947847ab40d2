package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/crmsync"
	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// ErrPaymentNotApproved is returned when checkout is attempted with a
// declined payment. No group is created.
var ErrPaymentNotApproved = errors.New("payment not approved")

// CheckoutResult describes the order created (or found) for a transaction.
type CheckoutResult struct {
	OrderID      kernel.UUID
	MainSequence int64
	Total        decimal.Decimal
	// Replayed is true when the transaction had already been checked out.
	Replayed bool
	Groups   []CheckoutGroup
}

// CheckoutGroup is one shipment group of a CheckoutResult.
type CheckoutGroup struct {
	GroupID         kernel.UUID
	Index           int
	Outcome         fulfillment.Outcome
	OrderNumber     string
	OrderingAccount string
	Total           decimal.Decimal
	SKUs            []string
	DealID          string
	// SyncPending is set when the CRM sync of this group did not complete.
	// The order is still valid and the sync is retried asynchronously.
	SyncPending bool
}

// CheckoutCommandHandler orchestrates checkout.
//
// Flow:
//  1. Return the existing order when the transaction was already checked out
//  2. Re-derive product facts from the catalog and classify every line
//  3. Gate the cart against the destination state (all-or-nothing)
//  4. Require an approved payment
//  5. Resolve the FFL when any line needs one
//  6. Group, mint and persist in one unit of work
//  7. Sync every group to the CRM; failures are queued, never returned
type CheckoutCommandHandler struct {
	uowFactory UoWFactory
	catalog    ports.ProductCatalog
	ffls       ports.FFLDirectory
	compliance ComplianceChecker
	grouper    services.ShipmentGrouper
	minter     NumberMinter
	syncer     OrderSyncer
	logger     *slog.Logger
	now        func() time.Time
}

func NewCheckoutCommandHandler(
	uowFactory UoWFactory,
	catalog ports.ProductCatalog,
	ffls ports.FFLDirectory,
	compliance ComplianceChecker,
	grouper services.ShipmentGrouper,
	minter NumberMinter,
	syncer OrderSyncer,
	logger *slog.Logger,
) CheckoutCommandHandler {
	return CheckoutCommandHandler{
		uowFactory: uowFactory,
		catalog:    catalog,
		ffls:       ffls,
		compliance: compliance,
		grouper:    grouper,
		minter:     minter,
		syncer:     syncer,
		logger:     logger.With("component", "checkout"),
		now:        time.Now,
	}
}

// Handle runs the checkout. Compliance and classification errors abort
// before anything is persisted; CRM errors never abort.
func (h *CheckoutCommandHandler) Handle(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	if err := cmd.Validate(); err != nil {
		return CheckoutResult{}, err
	}

	existing, err := h.findExisting(ctx, cmd.TransactionID())
	if err != nil {
		return CheckoutResult{}, err
	}
	if existing != nil {
		h.logger.InfoContext(ctx, "Checkout replayed for existing transaction",
			"transaction_id", cmd.TransactionID(), "order_id", existing.ID().String())
		return resultFrom(existing, nil, true), nil
	}

	items, outcomes, err := h.classify(ctx, cmd.Items())
	if err != nil {
		return CheckoutResult{}, err
	}

	verdict, err := h.compliance.CheckCartCompliance(ctx, cmd.Actor(), items, cmd.ShipTo().State)
	if err != nil {
		return CheckoutResult{}, err
	}
	if err = verdict.Err(); err != nil {
		return CheckoutResult{}, err
	}

	if !cmd.Payment().Approved {
		return CheckoutResult{}, fmt.Errorf("%w: transaction %s", ErrPaymentNotApproved, cmd.TransactionID())
	}

	consignees, err := h.consignees(ctx, cmd, outcomes)
	if err != nil {
		return CheckoutResult{}, err
	}

	at := h.now()
	orderID := kernel.NewUUID()
	groups, err := h.grouper.Group(orderID, items, outcomes, consignees, cmd.IsTest(), at)
	if err != nil {
		return CheckoutResult{}, err
	}
	ord, err := order.NewOrder(orderID, cmd.TransactionID(), cmd.IsTest(),
		consignees.Customer.ShipAddress.State(), cart.Total(items), groups, at)
	if err != nil {
		return CheckoutResult{}, err
	}

	minted, err := h.minter.Mint(ctx, cmd.TransactionID(), len(groups), cmd.IsTest())
	if err != nil {
		return CheckoutResult{}, err
	}
	if err = ord.AssignNumbers(minted.PerGroup); err != nil {
		return CheckoutResult{}, err
	}

	if err = h.persist(ctx, ord); err != nil {
		if errors.Is(err, ports.ErrDuplicateOrder) {
			return h.replayConcurrent(ctx, cmd.TransactionID(), err)
		}
		return CheckoutResult{}, err
	}
	h.logger.InfoContext(ctx, "Order created",
		"order_id", ord.ID().String(), "transaction_id", cmd.TransactionID(),
		"main_sequence", ord.MainSequence(), "groups", len(groups))

	syncResults := h.syncer.SyncOrder(ctx, ord.Groups())
	h.linkDeals(context.WithoutCancel(ctx), ord, syncResults)

	return resultFrom(ord, syncResults, false), nil
}

func (h *CheckoutCommandHandler) findExisting(ctx context.Context, transactionID string) (*order.Order, error) {
	uow := h.uowFactory.Create()
	existing, err := uow.OrderRepository().GetByTransactionID(ctx, transactionID)
	if err == nil {
		return existing, nil
	}
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil
	}
	return nil, err
}

// replayConcurrent resolves a lost race against another checkout of the same
// transaction: the winner's order is returned as a replay.
func (h *CheckoutCommandHandler) replayConcurrent(ctx context.Context, transactionID string, cause error) (CheckoutResult, error) {
	existing, err := h.findExisting(ctx, transactionID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if existing == nil {
		return CheckoutResult{}, cause
	}
	h.logger.InfoContext(ctx, "Checkout replayed after concurrent insert",
		"transaction_id", transactionID, "order_id", existing.ID().String())
	return resultFrom(existing, nil, true), nil
}

// classify replaces client-supplied product facts with catalog master data.
func (h *CheckoutCommandHandler) classify(ctx context.Context, items []cart.Item) ([]cart.Item, []fulfillment.Outcome, error) {
	out := make([]cart.Item, len(items))
	outcomes := make([]fulfillment.Outcome, len(items))
	for i, it := range items {
		md, err := h.catalog.Get(ctx, it.SKU())
		if err != nil {
			if errors.Is(err, errs.ErrObjectNotFound) {
				return nil, nil, fmt.Errorf("%w: sku %s is not in the catalog", fulfillment.ErrClassificationMismatch, it.SKU())
			}
			return nil, nil, err
		}
		out[i] = it.WithMasterData(md)
		outcome, err := fulfillment.ClassifyItem(out[i])
		if err != nil {
			return nil, nil, err
		}
		outcomes[i] = outcome
	}
	return out, outcomes, nil
}

func (h *CheckoutCommandHandler) consignees(
	ctx context.Context,
	cmd CheckoutCommand,
	outcomes []fulfillment.Outcome,
) (services.Consignees, error) {
	a := cmd.ShipTo()
	addr, err := kernel.NewAddress(a.Line1, a.Line2, a.City, a.State, a.Zip)
	if err != nil {
		return services.Consignees{}, err
	}
	customer, err := shipment.NewCustomerConsignee(addr)
	if err != nil {
		return services.Consignees{}, err
	}
	c := services.Consignees{Customer: customer}

	needsFFL := false
	for _, o := range outcomes {
		needsFFL = needsFFL || o.RequiresFFL()
	}
	if !needsFFL {
		return c, nil
	}
	if cmd.FFLID() == "" {
		return services.Consignees{}, errs.NewValueIsRequiredErrorWithCause("fflId",
			errors.New("cart contains items that must ship to an FFL"))
	}
	ffl, err := h.ffls.Lookup(ctx, cmd.FFLID())
	if err != nil {
		return services.Consignees{}, err
	}
	c.FFL = &ffl
	return c, nil
}

func (h *CheckoutCommandHandler) persist(ctx context.Context, ord *order.Order) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OrderRepository().Add(ctx, ord); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// linkDeals stores the CRM deal ids. A group whose id cannot be stored is
// queued for a re-sync; deal upserts are keyed by order number.
func (h *CheckoutCommandHandler) linkDeals(ctx context.Context, ord *order.Order, results []crmsync.GroupResult) {
	uow := h.uowFactory.Create()
	repo := uow.ShipmentRepository()
	groups := ord.Groups()
	for i, res := range results {
		if res.Err != nil || res.DealID == "" {
			continue
		}
		g := groups[i]
		if err := g.AttachDeal(res.DealID); err != nil {
			continue
		}
		if err := repo.SetDealID(ctx, g.ID(), res.DealID); err != nil {
			h.logger.WarnContext(ctx, "Failed to store CRM deal id",
				"group_id", g.ID().String(), "deal_id", res.DealID, "error", err)
			if qerr := h.syncer.Requeue(ctx, g.ID(), "store deal id: "+err.Error()); qerr != nil {
				h.logger.ErrorContext(ctx, "Failed to queue CRM re-sync",
					"group_id", g.ID().String(), "error", qerr)
			}
		}
	}
}

func resultFrom(ord *order.Order, syncResults []crmsync.GroupResult, replayed bool) CheckoutResult {
	res := CheckoutResult{
		OrderID:      ord.ID(),
		MainSequence: ord.MainSequence(),
		Total:        ord.Total(),
		Replayed:     replayed,
	}
	for i, g := range ord.Groups() {
		cg := CheckoutGroup{
			GroupID:         g.ID(),
			Index:           g.Index(),
			Outcome:         g.Outcome(),
			OrderNumber:     g.OrderNumber().String(),
			OrderingAccount: string(g.OrderingAccount()),
			Total:           g.Total(),
			DealID:          g.DealID(),
		}
		for _, it := range g.Items() {
			cg.SKUs = append(cg.SKUs, it.SKU())
		}
		if i < len(syncResults) && syncResults[i].Err != nil {
			cg.SyncPending = true
		}
		res.Groups = append(res.Groups, cg)
	}
	return res
}
