package crmsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Deal order statuses written to the CRM.
const (
	StatusSubmitted = "Submitted"
	StatusReceived  = "Received"
	StatusShipped   = "Shipped"
	StatusDelivered = "Delivered"
)

// Config tunes the syncer.
type Config struct {
	// RequestTimeout bounds every single CRM call.
	RequestTimeout time.Duration
	// RateLimit and Burst throttle outgoing calls.
	RateLimit rate.Limit
	Burst     int
	Retry     RetryPolicy
	// MaxParallelGroups bounds SyncOrder fan-out.
	MaxParallelGroups int
	// OrderSyncTimeout bounds a whole SyncOrder run.
	OrderSyncTimeout time.Duration
	// EnqueueTimeout bounds writing a retry task.
	EnqueueTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestTimeout:    10 * time.Second,
		RateLimit:         rate.Limit(10),
		Burst:             5,
		Retry:             DefaultRetryPolicy(),
		MaxParallelGroups: 4,
		OrderSyncTimeout:  2 * time.Minute,
		EnqueueTimeout:    5 * time.Second,
	}
}

// GroupSync is what one successful group sync produced.
type GroupSync struct {
	DealID     string
	ProductIDs []string
}

// GroupResult is the per-group outcome of SyncOrder.
type GroupResult struct {
	GroupID kernel.UUID
	GroupSync
	Err error
}

// Syncer is the CRM sync adapter. It is safe for concurrent use.
type Syncer struct {
	client  ports.CRMClient
	cache   ports.ProductIDCache
	queue   ports.SyncQueue
	alerter ports.OpsAlerter
	metrics *Metrics
	limiter *rate.Limiter
	cfg     Config
	logger  *slog.Logger
	tracer  trace.Tracer
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

// NewSyncer wires the syncer. cache and metrics may be nil.
func NewSyncer(
	client ports.CRMClient,
	cache ports.ProductIDCache,
	queue ports.SyncQueue,
	alerter ports.OpsAlerter,
	metrics *Metrics,
	cfg Config,
	logger *slog.Logger,
) *Syncer {
	if cfg.MaxParallelGroups <= 0 {
		cfg.MaxParallelGroups = 1
	}
	defaults := DefaultConfig()
	if cfg.OrderSyncTimeout <= 0 {
		cfg.OrderSyncTimeout = defaults.OrderSyncTimeout
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = defaults.EnqueueTimeout
	}
	return &Syncer{
		client:  client,
		cache:   cache,
		queue:   queue,
		alerter: alerter,
		metrics: metrics,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.Burst),
		cfg:     cfg,
		logger:  logger.With("component", "crm_sync"),
		tracer:  otel.Tracer("fulfillment/crmsync"),
		sleep:   sleepCtx,
		now:     time.Now,
	}
}

// WithSleep replaces the backoff sleeper. Tests use it to avoid real waits.
func (s *Syncer) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Syncer {
	s.sleep = fn
	return s
}

// UpsertProduct returns the CRM product id for item, creating the product
// when no record with the same manufacturer part number exists.
func (s *Syncer) UpsertProduct(ctx context.Context, item cart.Item) (string, error) {
	mpn := item.MPN()
	if mpn == "" {
		return "", &PermanentError{Op: "upsert_product", Err: errs.NewValueIsRequiredError("mpn")}
	}

	if id := s.cachedProduct(ctx, mpn); id != "" {
		s.metrics.IncrementUpsert("product", "cached")
		return id, nil
	}

	id, err := s.searchProduct(ctx, mpn)
	if err != nil {
		return "", classify("search_product", err)
	}
	if id != "" {
		s.rememberProduct(ctx, mpn, id)
		s.metrics.IncrementUpsert("product", "found")
		return id, nil
	}

	product := ports.CRMProduct{
		MPN:          mpn,
		SKU:          item.SKU(),
		Name:         productName(item),
		Manufacturer: item.Manufacturer(),
		Category:     item.Category(),
		UPC:          item.UPC(),
		UnitPrice:    item.UnitPrice(),
		RequiresFFL:  item.RequiresFFL(),
	}
	err = s.call(ctx, "create_product", func(ctx context.Context) error {
		var cerr error
		id, cerr = s.client.CreateProduct(ctx, product)
		return cerr
	})
	if err != nil && ports.CRMErrorKindOf(err) == ports.CRMDuplicate {
		// Another writer created it between our search and create.
		id, err = s.resolveDuplicate(ctx, mpn, err)
	}
	if err != nil {
		s.metrics.IncrementUpsert("product", "error")
		return "", classify("create_product", err)
	}

	s.rememberProduct(ctx, mpn, id)
	s.metrics.IncrementUpsert("product", "created")
	return id, nil
}

func (s *Syncer) resolveDuplicate(ctx context.Context, mpn string, dupErr error) (string, error) {
	id, err := s.searchProduct(ctx, mpn)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	var ce *ports.CRMError
	if errors.As(dupErr, &ce) && ce.DuplicateID != "" {
		return ce.DuplicateID, nil
	}
	return "", dupErr
}

func (s *Syncer) searchProduct(ctx context.Context, mpn string) (string, error) {
	var id string
	err := s.call(ctx, "search_product", func(ctx context.Context) error {
		var serr error
		id, serr = s.client.SearchProductByMPN(ctx, mpn)
		return serr
	})
	return id, err
}

// UpsertDeal creates or updates the deal of a numbered group. productIDs maps
// manufacturer part numbers to CRM product ids.
func (s *Syncer) UpsertDeal(ctx context.Context, g *shipment.Group, productIDs map[string]string) (string, error) {
	if !g.IsNumbered() {
		return "", &PermanentError{Op: "upsert_deal", Err: errs.NewValueIsRequiredError("orderNumber")}
	}
	deal, err := buildDeal(g, productIDs)
	if err != nil {
		return "", &PermanentError{Op: "upsert_deal", Err: err}
	}

	var dealID string
	err = s.call(ctx, "upsert_deal", func(ctx context.Context) error {
		var uerr error
		dealID, uerr = s.client.UpsertDeal(ctx, deal)
		return uerr
	})
	if err != nil {
		s.metrics.IncrementUpsert("deal", "error")
		return "", classify("upsert_deal", err)
	}
	s.metrics.IncrementUpsert("deal", "ok")
	return dealID, nil
}

// SyncGroup upserts every product of g once per part number, then the deal.
func (s *Syncer) SyncGroup(ctx context.Context, g *shipment.Group) (GroupSync, error) {
	ctx, span := s.tracer.Start(ctx, "crmsync.SyncGroup", trace.WithAttributes(
		attribute.String("group.id", g.ID().String()),
		attribute.String("group.order_number", g.OrderNumber().String()),
		attribute.String("group.outcome", g.Outcome().String()),
	))
	defer span.End()

	ids := make(map[string]string)
	var productIDs []string
	for _, it := range g.Items() {
		if _, done := ids[it.MPN()]; done {
			continue
		}
		id, err := s.UpsertProduct(ctx, it)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "product upsert failed")
			return GroupSync{}, err
		}
		ids[it.MPN()] = id
		productIDs = append(productIDs, id)
	}

	dealID, err := s.UpsertDeal(ctx, g, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deal upsert failed")
		return GroupSync{}, err
	}
	span.SetAttributes(attribute.String("crm.deal_id", dealID))
	return GroupSync{DealID: dealID, ProductIDs: productIDs}, nil
}

// SyncOrder syncs every group concurrently. It never returns an error:
// failed groups are queued or alerted on, and reported in the results.
//
// The groups are already persisted: SyncOrder ignores the caller's
// cancellation and is bounded by OrderSyncTimeout only.
func (s *Syncer) SyncOrder(ctx context.Context, groups []*shipment.Group) []GroupResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OrderSyncTimeout)
	defer cancel()

	results := make([]GroupResult, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallelGroups)
	for i, grp := range groups {
		g.Go(func() error {
			res, err := s.SyncGroup(gctx, grp)
			if err != nil {
				s.HandleFailure(ctx, grp.ID(), grp.OrderNumber().String(), err)
			}
			results[i] = GroupResult{GroupID: grp.ID(), GroupSync: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// UpdateDealStatus pushes an IH status change to the group's deal. Groups
// without a deal yet are queued for a full sync, which carries the stage.
func (s *Syncer) UpdateDealStatus(ctx context.Context, g *shipment.Group, status ihstatus.Status) error {
	if g.DealID() == "" {
		return s.enqueue(ctx, g.ID(), "deal not created yet")
	}
	orderStatus := OrderStatusFor(status)
	err := s.call(ctx, "update_deal_status", func(ctx context.Context) error {
		return s.client.UpdateDealStatus(ctx, g.DealID(), orderStatus)
	})
	if err != nil {
		s.metrics.IncrementUpsert("deal_status", "error")
		err = classify("update_deal_status", err)
		s.HandleFailure(ctx, g.ID(), g.OrderNumber().String(), err)
		return err
	}
	s.metrics.IncrementUpsert("deal_status", "ok")
	return nil
}

// HandleFailure routes a classified failure: transient ones are queued,
// permanent ones raise an alert.
func (s *Syncer) HandleFailure(ctx context.Context, groupID kernel.UUID, orderNumber string, err error) {
	if IsPermanent(err) {
		s.metrics.IncrementFailure("permanent")
		s.logger.ErrorContext(ctx, "CRM sync failed permanently",
			"group_id", groupID.String(), "order_number", orderNumber, "error", err)
		alert := ports.Alert{
			Kind:    "crm_sync_permanent",
			Subject: fmt.Sprintf("CRM sync failed for %s", orderNumber),
			Detail:  err.Error(),
			At:      s.now().UTC(),
		}
		if aerr := s.alerter.Alert(ctx, alert); aerr != nil {
			s.logger.ErrorContext(ctx, "Failed to raise ops alert", "group_id", groupID.String(), "error", aerr)
		}
		return
	}

	s.metrics.IncrementFailure("transient")
	s.logger.WarnContext(ctx, "CRM sync failed, queueing retry",
		"group_id", groupID.String(), "order_number", orderNumber, "error", err)
	if qerr := s.enqueue(ctx, groupID, err.Error()); qerr != nil {
		s.logger.ErrorContext(ctx, "Failed to queue CRM sync retry", "group_id", groupID.String(), "error", qerr)
	}
}

// Requeue schedules a full re-sync of the group through the retry queue.
func (s *Syncer) Requeue(ctx context.Context, groupID kernel.UUID, reason string) error {
	return s.enqueue(ctx, groupID, reason)
}

// enqueue outlives the caller's cancellation, bounded by EnqueueTimeout.
func (s *Syncer) enqueue(ctx context.Context, groupID kernel.UUID, reason string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.EnqueueTimeout)
	defer cancel()

	if err := s.queue.Enqueue(ctx, groupID, reason); err != nil {
		return err
	}
	s.metrics.IncrementEnqueued()
	return nil
}

// call runs one CRM operation under the rate limiter and per-call timeout.
// An auth failure triggers one token refresh; rate limiting is retried per
// the RetryPolicy. Every other error is returned as is.
func (s *Syncer) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "crm."+op)
	defer span.End()

	refreshed := false
	for retries := 0; ; {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		start := time.Now()
		cctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		err := fn(cctx)
		cancel()
		s.metrics.ObserveCall(op, time.Since(start))
		if err == nil {
			return nil
		}

		switch ports.CRMErrorKindOf(err) {
		case ports.CRMAuth:
			if refreshed {
				span.RecordError(err)
				return err
			}
			refreshed = true
			s.logger.InfoContext(ctx, "CRM token rejected, refreshing", "op", op)
			if rerr := s.client.RefreshAuth(ctx); rerr != nil {
				span.RecordError(rerr)
				return fmt.Errorf("refresh crm token: %w", rerr)
			}
		case ports.CRMRateLimited:
			wait, ok := s.cfg.Retry.next(retries)
			if !ok {
				span.RecordError(err)
				return err
			}
			retries++
			s.logger.InfoContext(ctx, "CRM rate limited, backing off", "op", op, "wait", wait, "retry", retries)
			if serr := s.sleep(ctx, wait); serr != nil {
				return serr
			}
		default:
			span.RecordError(err)
			return err
		}
	}
}

func (s *Syncer) cachedProduct(ctx context.Context, mpn string) string {
	if s.cache == nil {
		return ""
	}
	id, ok, err := s.cache.Get(ctx, mpn)
	if err != nil {
		s.logger.WarnContext(ctx, "Product id cache read failed", "mpn", mpn, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return id
}

func (s *Syncer) rememberProduct(ctx context.Context, mpn, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, mpn, id); err != nil {
		s.logger.WarnContext(ctx, "Product id cache write failed", "mpn", mpn, "error", err)
	}
}

// OrderStatusFor maps an IH status to the CRM deal order status.
func OrderStatusFor(status ihstatus.Status) string {
	switch status {
	case ihstatus.ReceivedFromRSR:
		return StatusReceived
	case ihstatus.SentOutbound:
		return StatusShipped
	case ihstatus.OrderComplete:
		return StatusDelivered
	default:
		return StatusSubmitted
	}
}

func buildDeal(g *shipment.Group, productIDs map[string]string) (ports.CRMDeal, error) {
	deal := ports.CRMDeal{
		OrderNumber:     g.OrderNumber().String(),
		OrderStatus:     OrderStatusFor(g.IH().Status()),
		Outcome:         g.Outcome().String(),
		OrderingAccount: string(g.OrderingAccount()),
		Amount:          g.Total(),
		ShipState:       g.Consignee().Address().State().String(),
		IsTest:          g.OrderNumber().IsTest(),
	}
	if c, ok := g.Consignee().(shipment.FFLConsignee); ok {
		deal.ConsigneeName = c.BusinessName
		deal.FFLLicense = c.LicenseNumber
	}
	for _, it := range g.Items() {
		id, ok := productIDs[it.MPN()]
		if !ok {
			return ports.CRMDeal{}, errs.NewObjectNotFoundError("productId", it.MPN())
		}
		deal.Lines = append(deal.Lines, ports.CRMDealLine{
			ProductID: id,
			Quantity:  it.Quantity(),
			UnitPrice: it.UnitPrice(),
		})
	}
	return deal, nil
}

func productName(item cart.Item) string {
	if item.Manufacturer() == "" {
		return item.SKU()
	}
	return item.Manufacturer() + " " + item.SKU()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
