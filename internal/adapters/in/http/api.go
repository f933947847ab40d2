package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// Wire types of the REST API. They mirror the schemas of openapi.json.

type Error struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type ComplianceError struct {
	Code         int           `json:"code"`
	Message      string        `json:"message"`
	BlockedItems []BlockedItem `json:"blockedItems"`
}

type BlockedItem struct {
	SKU          string `json:"sku"`
	ReasonCode   string `json:"reasonCode"`
	Reason       string `json:"reason"`
	RestrictedBy string `json:"restrictedBy,omitempty"`
}

type CartItem struct {
	ProductRef       string          `json:"productRef"`
	SKU              string          `json:"sku"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	RequiresFFL      bool            `json:"requiresFFL"`
	DropShipEligible bool            `json:"dropShipEligible"`
	Manufacturer     string          `json:"manufacturer"`
	Category         string          `json:"category"`
	UPC              string          `json:"upc"`
	MPN              string          `json:"mpn"`
}

type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

type Payment struct {
	Approved      bool   `json:"approved"`
	TransactionID string `json:"transactionId"`
	AuthCode      string `json:"authCode"`
}

type CheckoutRequest struct {
	Actor   string     `json:"actor"`
	Payment Payment    `json:"payment"`
	Items   []CartItem `json:"items"`
	ShipTo  Address    `json:"shipTo"`
	FFLID   string     `json:"fflId"`
	IsTest  bool       `json:"isTest"`
}

type CheckoutGroup struct {
	GroupID         openapi_types.UUID `json:"groupId"`
	Index           int                `json:"index"`
	Outcome         string             `json:"outcome"`
	OrderNumber     string             `json:"orderNumber"`
	OrderingAccount string             `json:"orderingAccount"`
	Total           decimal.Decimal    `json:"total"`
	SKUs            []string           `json:"skus"`
	DealID          string             `json:"dealId,omitempty"`
	CRMPending      bool               `json:"crmPending"`
}

type CheckoutResponse struct {
	OrderID      openapi_types.UUID `json:"orderId"`
	MainSequence int64              `json:"mainSequence"`
	Total        decimal.Decimal    `json:"total"`
	Replayed     bool               `json:"replayed"`
	Groups       []CheckoutGroup    `json:"groups"`
}

type AdvanceIHStatusRequest struct {
	Status         string `json:"status"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
	Actor          string `json:"actor"`
}

type IHStatus struct {
	Status         string `json:"status"`
	Version        int    `json:"version"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

type NewNote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Kind   string `json:"kind"`
}

type Note struct {
	ID        openapi_types.UUID `json:"id"`
	Text      string             `json:"text"`
	Author    string             `json:"author"`
	Kind      string             `json:"kind"`
	CreatedAt time.Time          `json:"createdAt"`
}

type ShipmentGroup struct {
	ID              openapi_types.UUID `json:"id"`
	OrderID         openapi_types.UUID `json:"orderId"`
	Index           int                `json:"index"`
	Outcome         string             `json:"outcome"`
	OrderNumber     string             `json:"orderNumber"`
	OrderingAccount string             `json:"orderingAccount"`
	Total           decimal.Decimal    `json:"total"`
	DealID          string             `json:"dealId,omitempty"`
	IHStatus        string             `json:"ihStatus,omitempty"`
	IHCarrier       string             `json:"ihCarrier,omitempty"`
	IHTracking      string             `json:"ihTracking,omitempty"`
	IHVersion       int                `json:"ihVersion"`
	Notes           []Note             `json:"notes"`
}

type StuckShipment struct {
	GroupID     openapi_types.UUID `json:"groupId"`
	OrderNumber string             `json:"orderNumber"`
	FFLName     string             `json:"fflName,omitempty"`
	FFLLicense  string             `json:"fflLicense,omitempty"`
	ReceivedAt  time.Time          `json:"receivedAt"`
}

// GetStuckIHShipmentsParams defines parameters for GetStuckIHShipments.
type GetStuckIHShipmentsParams struct {
	ThresholdHours *int `form:"thresholdHours,omitempty" json:"thresholdHours,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /api/v1/checkout)
	Checkout(ctx echo.Context) error
	// (GET /api/v1/groups/{groupId})
	GetShipmentGroup(ctx echo.Context, groupID openapi_types.UUID) error
	// (POST /api/v1/groups/{groupId}/ih-status)
	AdvanceIHStatus(ctx echo.Context, groupID openapi_types.UUID) error
	// (POST /api/v1/groups/{groupId}/notes)
	AddIHNote(ctx echo.Context, groupID openapi_types.UUID) error
	// (GET /api/v1/ih/stuck)
	GetStuckIHShipments(ctx echo.Context, params GetStuckIHShipmentsParams) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) Checkout(ctx echo.Context) error {
	return w.Handler.Checkout(ctx)
}

func (w *ServerInterfaceWrapper) GetShipmentGroup(ctx echo.Context) error {
	groupID, err := bindGroupID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetShipmentGroup(ctx, groupID)
}

func (w *ServerInterfaceWrapper) AdvanceIHStatus(ctx echo.Context) error {
	groupID, err := bindGroupID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.AdvanceIHStatus(ctx, groupID)
}

func (w *ServerInterfaceWrapper) AddIHNote(ctx echo.Context) error {
	groupID, err := bindGroupID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.AddIHNote(ctx, groupID)
}

func (w *ServerInterfaceWrapper) GetStuckIHShipments(ctx echo.Context) error {
	var params GetStuckIHShipmentsParams

	err := runtime.BindQueryParameter("form", true, false, "thresholdHours", ctx.QueryParams(), &params.ThresholdHours)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter thresholdHours: %s", err))
	}

	return w.Handler.GetStuckIHShipments(ctx, params)
}

func bindGroupID(ctx echo.Context) (openapi_types.UUID, error) {
	var groupID openapi_types.UUID

	err := runtime.BindStyledParameterWithOptions("simple", "groupId", ctx.Param("groupId"), &groupID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return groupID, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter groupId: %s", err))
	}
	return groupID, nil
}

// EchoRouter is satisfied by *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.POST("/api/v1/checkout", wrapper.Checkout)
	router.GET("/api/v1/groups/:groupId", wrapper.GetShipmentGroup)
	router.POST("/api/v1/groups/:groupId/ih-status", wrapper.AdvanceIHStatus)
	router.POST("/api/v1/groups/:groupId/notes", wrapper.AddIHNote)
	router.GET("/api/v1/ih/stuck", wrapper.GetStuckIHShipments)
}
