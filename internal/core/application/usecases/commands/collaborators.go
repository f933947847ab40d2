package commands

import (
	"context"

	"fulfillment/internal/core/application/crmsync"
	"fulfillment/internal/core/application/services"
	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/compliance"
	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/shipment"
)

// Application services used by the handlers. Satisfied by
// services.ComplianceClassifier, services.OrderNumberMinter and crmsync.Syncer.
type (
	ComplianceChecker interface {
		CheckCartCompliance(ctx context.Context, actor string, items []cart.Item, destination string) (compliance.Result, error)
	}

	NumberMinter interface {
		Mint(ctx context.Context, transactionID string, groupCount int, isTest bool) (services.Minted, error)
	}

	OrderSyncer interface {
		SyncOrder(ctx context.Context, groups []*shipment.Group) []crmsync.GroupResult
		Requeue(ctx context.Context, groupID kernel.UUID, reason string) error
	}

	GroupSyncer interface {
		SyncGroup(ctx context.Context, g *shipment.Group) (crmsync.GroupSync, error)
		HandleFailure(ctx context.Context, groupID kernel.UUID, orderNumber string, err error)
	}

	DealStatusUpdater interface {
		UpdateDealStatus(ctx context.Context, g *shipment.Group, status ihstatus.Status) error
	}
)
