// Package shipmentrepo persists shipment groups together with their IH custody
// state, staff notes and the audit trail of status transitions.
package shipmentrepo

import (
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/ordernumber"
	"fulfillment/internal/core/domain/model/shipment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	consigneeKindFFL      = "FFL"
	consigneeKindCustomer = "CUSTOMER"
)

// GroupDTO is one row of shipment_groups. Cart lines are stored as a JSON
// document because they are written once and always read whole.
type GroupDTO struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID       `gorm:"type:uuid;index"`
	GroupIndex      int             `gorm:"column:group_index"`
	Outcome         string          `gorm:"type:varchar(16);index:idx_ih_monitor,priority:1"`
	OrderNumber     string          `gorm:"type:varchar(32);uniqueIndex"`
	OrderingAccount string          `gorm:"type:varchar(16)"`
	Consignee       ConsigneeDTO    `gorm:"embedded;embeddedPrefix:consignee_"`
	Items           []ItemDTO       `gorm:"type:jsonb;serializer:json"`
	Total           decimal.Decimal `gorm:"type:numeric(12,2)"`
	DealID          string          `gorm:"type:varchar(64)"`
	IHStatus        string          `gorm:"column:ih_status;type:varchar(32);index:idx_ih_monitor,priority:2"`
	IHCarrier       string          `gorm:"column:ih_carrier;type:varchar(8)"`
	IHTracking      string          `gorm:"column:ih_tracking;type:varchar(64)"`
	IHVersion       int             `gorm:"column:ih_version"`
	IHUpdatedAt     *time.Time      `gorm:"column:ih_updated_at;index:idx_ih_monitor,priority:3"`
	CreatedAt       time.Time
	Notes           []NoteDTO `gorm:"foreignKey:GroupID"`
}

func (GroupDTO) TableName() string {
	return "shipment_groups"
}

// ConsigneeDTO flattens both consignee variants; Kind selects which one applies.
type ConsigneeDTO struct {
	Kind         string `gorm:"type:varchar(16)"`
	License      string `gorm:"type:varchar(32)"`
	BusinessName string `gorm:"type:varchar(255)"`
	Line1        string `gorm:"column:line1;type:varchar(255)"`
	Line2        string `gorm:"column:line2;type:varchar(255)"`
	City         string `gorm:"type:varchar(128)"`
	State        string `gorm:"type:char(2)"`
	Zip          string `gorm:"type:varchar(16)"`
}

// ItemDTO is the JSON shape of a stored cart line.
type ItemDTO struct {
	ProductRef       string          `json:"productRef,omitempty"`
	SKU              string          `json:"sku"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	RequiresFFL      bool            `json:"requiresFfl"`
	DropShipEligible bool            `json:"dropShipEligible"`
	Manufacturer     string          `json:"manufacturer,omitempty"`
	Category         string          `json:"category,omitempty"`
	UPC              string          `json:"upc,omitempty"`
	MPN              string          `json:"mpn,omitempty"`
	Attributes       cart.Attributes `json:"attributes"`
}

// NoteDTO is one row of ih_notes. Rows are insert-only.
type NoteDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID `gorm:"type:uuid;index"`
	Text      string    `gorm:"type:text"`
	Author    string    `gorm:"type:varchar(128)"`
	Kind      string    `gorm:"type:varchar(32)"`
	CreatedAt time.Time
}

func (NoteDTO) TableName() string {
	return "ih_notes"
}

// TransitionDTO is one row of ih_status_audit.
type TransitionDTO struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	GroupID    uuid.UUID `gorm:"type:uuid;index"`
	FromStatus string    `gorm:"type:varchar(32)"`
	ToStatus   string    `gorm:"type:varchar(32)"`
	Actor      string    `gorm:"type:varchar(128)"`
	At         time.Time
}

func (TransitionDTO) TableName() string {
	return "ih_status_audit"
}

// FromDomain maps a group to its row. It is exported for orderrepo, which
// inserts the groups of a new order in the same statement.
func FromDomain(g *shipment.Group) GroupDTO {
	items := make([]ItemDTO, 0, len(g.Items()))
	for _, it := range g.Items() {
		items = append(items, itemFromDomain(it))
	}

	var orderNumber string
	if g.IsNumbered() {
		orderNumber = g.OrderNumber().String()
	}

	ih := g.IH()
	notes := make([]NoteDTO, 0, len(ih.Notes()))
	for _, n := range ih.Notes() {
		notes = append(notes, noteFromDomain(g.ID(), n))
	}

	return GroupDTO{
		ID:              g.ID().Raw(),
		OrderID:         g.OrderID().Raw(),
		GroupIndex:      g.Index(),
		Outcome:         g.Outcome().String(),
		OrderNumber:     orderNumber,
		OrderingAccount: string(g.OrderingAccount()),
		Consignee:       consigneeFromDomain(g.Consignee()),
		Items:           items,
		Total:           g.Total(),
		DealID:          g.DealID(),
		IHStatus:        ih.Status().String(),
		IHCarrier:       ih.Carrier().String(),
		IHTracking:      ih.TrackingNumber(),
		IHVersion:       ih.Version(),
		CreatedAt:       g.CreatedAt(),
		Notes:           notes,
	}
}

// ToDomain rebuilds a group from its row and preloaded notes.
func ToDomain(dto GroupDTO) (*shipment.Group, error) {
	id, err := kernel.UUIDFromString(dto.ID.String())
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromString(dto.OrderID.String())
	if err != nil {
		return nil, err
	}
	outcome, err := fulfillment.Parse(dto.Outcome)
	if err != nil {
		return nil, err
	}

	items := make([]cart.Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		item, itemErr := cart.NewItem(it.params())
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	consignee, err := dto.Consignee.toDomain()
	if err != nil {
		return nil, err
	}

	var number ordernumber.OrderNumber
	if dto.OrderNumber != "" {
		if number, err = ordernumber.Parse(dto.OrderNumber); err != nil {
			return nil, err
		}
	}

	tracker, err := trackerToDomain(dto)
	if err != nil {
		return nil, err
	}

	return shipment.RestoreGroup(
		id,
		orderID,
		dto.GroupIndex,
		outcome,
		items,
		consignee,
		shipment.OrderingAccount(dto.OrderingAccount),
		number,
		dto.DealID,
		tracker,
		dto.CreatedAt,
	)
}

func trackerToDomain(dto GroupDTO) (*ihstatus.Tracker, error) {
	status, err := ihstatus.Parse(dto.IHStatus)
	if err != nil {
		return nil, err
	}
	notes := make([]ihstatus.Note, 0, len(dto.Notes))
	for _, n := range dto.Notes {
		note, noteErr := n.toDomain()
		if noteErr != nil {
			return nil, noteErr
		}
		notes = append(notes, note)
	}
	return ihstatus.RestoreTracker(status, ihstatus.Carrier(dto.IHCarrier), dto.IHTracking, dto.IHVersion, notes)
}

func itemFromDomain(it cart.Item) ItemDTO {
	p := it.Params()
	return ItemDTO{
		ProductRef:       p.ProductRef,
		SKU:              p.SKU,
		Quantity:         p.Quantity,
		UnitPrice:        p.UnitPrice,
		RequiresFFL:      p.RequiresFFL,
		DropShipEligible: p.DropShipEligible,
		Manufacturer:     p.Manufacturer,
		Category:         p.Category,
		UPC:              p.UPC,
		MPN:              p.MPN,
		Attributes:       p.Attributes,
	}
}

func (it ItemDTO) params() cart.ItemParams {
	return cart.ItemParams{
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
		Attributes:       it.Attributes,
	}
}

func consigneeFromDomain(c shipment.Consignee) ConsigneeDTO {
	addr := c.Address()
	dto := ConsigneeDTO{
		Kind:  consigneeKindCustomer,
		Line1: addr.Line1(),
		Line2: addr.Line2(),
		City:  addr.City(),
		State: addr.State().String(),
		Zip:   addr.Zip(),
	}
	if ffl, ok := c.(shipment.FFLConsignee); ok {
		dto.Kind = consigneeKindFFL
		dto.License = ffl.LicenseNumber
		dto.BusinessName = ffl.BusinessName
	}
	return dto
}

func (c ConsigneeDTO) toDomain() (shipment.Consignee, error) {
	addr, err := kernel.NewAddress(c.Line1, c.Line2, c.City, c.State, c.Zip)
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case consigneeKindFFL:
		return shipment.NewFFLConsignee(c.License, c.BusinessName, addr)
	case consigneeKindCustomer:
		return shipment.NewCustomerConsignee(addr)
	default:
		return nil, fmt.Errorf("unknown consignee kind %q", c.Kind)
	}
}

func noteFromDomain(groupID kernel.UUID, n ihstatus.Note) NoteDTO {
	return NoteDTO{
		ID:        n.ID().Raw(),
		GroupID:   groupID.Raw(),
		Text:      n.Text(),
		Author:    n.Author(),
		Kind:      string(n.Kind()),
		CreatedAt: n.CreatedAt(),
	}
}

func (n NoteDTO) toDomain() (ihstatus.Note, error) {
	id, err := kernel.UUIDFromString(n.ID.String())
	if err != nil {
		return ihstatus.Note{}, err
	}
	kind, err := ihstatus.ParseNoteKind(n.Kind)
	if err != nil {
		return ihstatus.Note{}, err
	}
	return ihstatus.RestoreNote(id, n.Text, n.Author, kind, n.CreatedAt)
}

func transitionFromDomain(groupID kernel.UUID, t ihstatus.Transition) TransitionDTO {
	return TransitionDTO{
		GroupID:    groupID.Raw(),
		FromStatus: t.From.String(),
		ToStatus:   t.To.String(),
		Actor:      t.Actor,
		At:         t.At,
	}
}
