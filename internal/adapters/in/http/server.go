package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Use case handlers the server delegates to.
type (
	CheckoutHandler interface {
		Handle(ctx context.Context, cmd commands.CheckoutCommand) (commands.CheckoutResult, error)
	}

	AdvanceIHStatusHandler interface {
		Handle(ctx context.Context, cmd commands.AdvanceIHStatusCommand) (commands.AdvanceIHStatusResult, error)
	}

	AddIHNoteHandler interface {
		Handle(ctx context.Context, cmd commands.AddIHNoteCommand) (ihstatus.Note, error)
	}

	ShipmentGroupReader interface {
		Handle(ctx context.Context, q queries.GetShipmentGroupQuery) (queries.GetShipmentGroupQueryResponse, error)
	}

	StuckShipmentsReader interface {
		Handle(ctx context.Context, q queries.GetStuckIHShipmentsQuery) ([]queries.GetStuckIHShipmentsQueryResponse, error)
	}
)

// Server implements the ServerInterface for handling HTTP requests.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	checkoutHandler        CheckoutHandler
	advanceIHStatusHandler AdvanceIHStatusHandler
	addIHNoteHandler       AddIHNoteHandler

	// Query handlers
	getShipmentGroupHandler    ShipmentGroupReader
	getStuckIHShipmentsHandler StuckShipmentsReader

	logger *slog.Logger
	now    func() time.Time
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	checkoutHandler CheckoutHandler,
	advanceIHStatusHandler AdvanceIHStatusHandler,
	addIHNoteHandler AddIHNoteHandler,
	getShipmentGroupHandler ShipmentGroupReader,
	getStuckIHShipmentsHandler StuckShipmentsReader,
	logger *slog.Logger,
) *Server {
	return &Server{
		checkoutHandler:            checkoutHandler,
		advanceIHStatusHandler:     advanceIHStatusHandler,
		addIHNoteHandler:           addIHNoteHandler,
		getShipmentGroupHandler:    getShipmentGroupHandler,
		getStuckIHShipmentsHandler: getStuckIHShipmentsHandler,
		logger:                     logger.With("component", "http"),
		now:                        time.Now,
	}
}

// Checkout handles POST /api/v1/checkout - turns a paid cart into an order.
func (s *Server) Checkout(ctx echo.Context) error {
	var req CheckoutRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	items := make([]cart.Item, 0, len(req.Items))
	for _, it := range req.Items {
		item, err := cart.NewItem(cart.ItemParams{
			ProductRef:       it.ProductRef,
			SKU:              it.SKU,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			RequiresFFL:      it.RequiresFFL,
			DropShipEligible: it.DropShipEligible,
			Manufacturer:     it.Manufacturer,
			Category:         it.Category,
			UPC:              it.UPC,
			MPN:              it.MPN,
		})
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, Error{
				Code:    http.StatusBadRequest,
				Message: "Invalid cart item: " + err.Error(),
			})
		}
		items = append(items, item)
	}

	cmd, err := commands.NewCheckoutCommand(
		ports.PaymentOutcome{
			Approved:      req.Payment.Approved,
			TransactionID: req.Payment.TransactionID,
			AuthCode:      req.Payment.AuthCode,
		},
		req.Actor,
		items,
		commands.ShippingAddress{
			Line1: req.ShipTo.Line1,
			Line2: req.ShipTo.Line2,
			City:  req.ShipTo.City,
			State: req.ShipTo.State,
			Zip:   req.ShipTo.Zip,
		},
		req.FFLID,
		req.IsTest,
	)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid checkout: " + err.Error(),
		})
	}

	result, err := s.checkoutHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		// A dealer or product the request names but we do not know is the
		// caller's mistake, not a missing resource.
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: err.Error()})
		}
		return s.writeError(ctx, "checkout", err)
	}

	response := CheckoutResponse{
		OrderID:      result.OrderID.Raw(),
		MainSequence: result.MainSequence,
		Total:        result.Total,
		Replayed:     result.Replayed,
		Groups:       make([]CheckoutGroup, len(result.Groups)),
	}
	for i, g := range result.Groups {
		response.Groups[i] = CheckoutGroup{
			GroupID:         g.GroupID.Raw(),
			Index:           g.Index,
			Outcome:         g.Outcome.String(),
			OrderNumber:     g.OrderNumber,
			OrderingAccount: g.OrderingAccount,
			Total:           g.Total,
			SKUs:            g.SKUs,
			DealID:          g.DealID,
			CRMPending:      g.SyncPending,
		}
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return ctx.JSON(status, response)
}

// GetShipmentGroup handles GET /api/v1/groups/{groupId}.
func (s *Server) GetShipmentGroup(ctx echo.Context, groupID openapi_types.UUID) error {
	query, err := queries.NewGetShipmentGroupQuery(kernel.MustUUIDFromString(groupID.String()))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: err.Error()})
	}

	group, err := s.getShipmentGroupHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, "get shipment group", err)
	}

	response := ShipmentGroup{
		ID:              group.ID.Raw(),
		OrderID:         group.OrderID.Raw(),
		Index:           group.Index,
		Outcome:         group.Outcome,
		OrderNumber:     group.OrderNumber,
		OrderingAccount: group.OrderingAccount,
		Total:           group.Total,
		DealID:          group.DealID,
		IHStatus:        group.IHStatus,
		IHCarrier:       group.IHCarrier,
		IHTracking:      group.IHTracking,
		IHVersion:       group.IHVersion,
		Notes:           make([]Note, len(group.Notes)),
	}
	for i, n := range group.Notes {
		response.Notes[i] = Note{
			ID:        n.ID.Raw(),
			Text:      n.Text,
			Author:    n.Author,
			Kind:      n.Kind,
			CreatedAt: n.CreatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// AdvanceIHStatus handles POST /api/v1/groups/{groupId}/ih-status.
func (s *Server) AdvanceIHStatus(ctx echo.Context, groupID openapi_types.UUID) error {
	var req AdvanceIHStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	target, err := ihstatus.Parse(req.Status)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: err.Error()})
	}

	cmd, err := commands.NewAdvanceIHStatusCommand(
		kernel.MustUUIDFromString(groupID.String()), target, req.Carrier, req.TrackingNumber, req.Actor)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid status change: " + err.Error(),
		})
	}

	result, err := s.advanceIHStatusHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, "advance IH status", err)
	}

	return ctx.JSON(http.StatusOK, IHStatus{
		Status:         result.Status.String(),
		Version:        result.Version,
		Carrier:        result.Carrier.String(),
		TrackingNumber: result.Tracking,
	})
}

// AddIHNote handles POST /api/v1/groups/{groupId}/notes.
func (s *Server) AddIHNote(ctx echo.Context, groupID openapi_types.UUID) error {
	var req NewNote
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	var kind ihstatus.NoteKind
	if req.Kind != "" {
		parsed, err := ihstatus.ParseNoteKind(req.Kind)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: err.Error()})
		}
		kind = parsed
	}

	cmd, err := commands.NewAddIHNoteCommand(kernel.MustUUIDFromString(groupID.String()), req.Text, req.Author, kind)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid note: " + err.Error(),
		})
	}

	note, err := s.addIHNoteHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, "add IH note", err)
	}

	return ctx.JSON(http.StatusCreated, Note{
		ID:        note.ID().Raw(),
		Text:      note.Text(),
		Author:    note.Author(),
		Kind:      string(note.Kind()),
		CreatedAt: note.CreatedAt(),
	})
}

// GetStuckIHShipments handles GET /api/v1/ih/stuck.
func (s *Server) GetStuckIHShipments(ctx echo.Context, params GetStuckIHShipmentsParams) error {
	threshold := commands.DefaultStuckThreshold
	if params.ThresholdHours != nil {
		threshold = time.Duration(*params.ThresholdHours) * time.Hour
	}

	query, err := queries.NewGetStuckIHShipmentsQuery(s.now().Add(-threshold))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: err.Error()})
	}

	stuck, err := s.getStuckIHShipmentsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, "list stuck IH shipments", err)
	}

	response := make([]StuckShipment, len(stuck))
	for i, st := range stuck {
		response[i] = StuckShipment{
			GroupID:     st.GroupID.Raw(),
			OrderNumber: st.OrderNumber,
			FFLName:     st.FFLName,
			FFLLicense:  st.FFLLicense,
			ReceivedAt:  st.ReceivedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}
