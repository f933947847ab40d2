package ihstatus

import (
	"errors"
	"time"
)

// Meta is what staff supply with a transition request.
type Meta struct {
	Carrier        string
	TrackingNumber string
}

// Transition is the audit record of one status change.
type Transition struct {
	From  Status
	To    Status
	Actor string
	At    time.Time
}

// Tracker owns the IH status and metadata of a single shipment group.
// version increases on every transition and backs optimistic persistence.
type Tracker struct {
	status   Status
	carrier  Carrier
	tracking string
	version  int
	notes    NoteLog
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// RestoreTracker rebuilds a tracker from storage.
func RestoreTracker(status Status, carrier Carrier, tracking string, version int, notes []Note) (*Tracker, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	if carrier != "" {
		if _, err := ParseCarrier(string(carrier)); err != nil {
			return nil, err
		}
	}
	return &Tracker{
		status:   status,
		carrier:  carrier,
		tracking: tracking,
		version:  version,
		notes:    NewNoteLog(notes...),
	}, nil
}

func (t *Tracker) Status() Status { return t.status }
func (t *Tracker) Carrier() Carrier { return t.carrier }
func (t *Tracker) TrackingNumber() string { return t.tracking }
func (t *Tracker) Version() int { return t.version }
func (t *Tracker) Notes() []Note { return t.notes.All() }
func (t *Tracker) DeliveryConfirmed() bool { return t.notes.HasDeliveryConfirmation() }

// AddNote appends a note. Notes never change the status.
func (t *Tracker) AddNote(n Note) {
	t.notes.Append(n)
}

// Advance validates the transition to target and applies it. On error the
// tracker is left untouched.
func (t *Tracker) Advance(target Status, meta Meta, actor string, at time.Time) (Transition, error) {
	if actor == "" {
		return Transition{}, NewInvalidTransitionError(t.status, target, "actor is required")
	}
	if t.status.IsTerminal() {
		return Transition{}, NewInvalidTransitionError(t.status, target, "ORDER_COMPLETE is terminal")
	}

	var (
		next     Status
		carrier  = t.carrier
		tracking = t.tracking
		err      error
	)
	switch target {
	case ReceivedFromRSR:
		next, err = t.status.Receive()
	case SentOutbound:
		next, err = t.status.SendOutbound()
		if err == nil {
			carrier, tracking, err = t.outboundDetails(meta)
		}
	case OrderComplete:
		next, err = t.status.Complete()
		if err == nil {
			tracking, err = t.completionEvidence(meta)
		}
	case Unset:
		err = NewInvalidTransitionError(t.status, target, "status cannot be cleared")
	default:
		err = errors.Join(target.Validate(), NewInvalidTransitionError(t.status, target, "unknown target status"))
	}
	if err != nil {
		return Transition{}, err
	}

	tr := Transition{From: t.status, To: next, Actor: actor, At: at.UTC()}
	t.status = next
	t.carrier = carrier
	t.tracking = tracking
	t.version++
	return tr, nil
}

func (t *Tracker) outboundDetails(meta Meta) (Carrier, string, error) {
	carrier, err := ParseCarrier(meta.Carrier)
	if err != nil {
		return "", "", NewInvalidTransitionError(t.status, SentOutbound, "carrier must be one of UPS, FEDEX, USPS, OTHER")
	}
	tracking, ok := NormalizeTracking(meta.TrackingNumber)
	if !ok {
		return "", "", NewInvalidTransitionError(t.status, SentOutbound, "tracking number must be at least 8 characters")
	}
	return carrier, tracking, nil
}

// completionEvidence accepts a delivery-confirmation note, an existing
// tracking number, or a plausible tracking number supplied now.
func (t *Tracker) completionEvidence(meta Meta) (string, error) {
	if supplied, ok := NormalizeTracking(meta.TrackingNumber); ok {
		return supplied, nil
	}
	if t.tracking != "" || t.notes.HasDeliveryConfirmation() {
		return t.tracking, nil
	}
	return "", NewInvalidTransitionError(t.status, OrderComplete, "delivery confirmation note or tracking number required")
}
