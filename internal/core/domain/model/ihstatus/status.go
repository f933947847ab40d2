package ihstatus

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status is the post-ship custody state of an in-house FFL shipment.
//
//	Unset ──> ReceivedFromRSR ──> SentOutbound ──> OrderComplete
//	                 │                                  ▲
//	                 └──────────────────────────────────┘
//
// Transitions only move forward. OrderComplete is terminal.
type Status int

const (
	// Unset is the state of a group before any IH activity.
	Unset Status = iota
	ReceivedFromRSR
	SentOutbound
	OrderComplete
)

var statusStrings = map[Status]string{
	Unset:           "",
	ReceivedFromRSR: "RECEIVED_FROM_RSR",
	SentOutbound:    "SENT_OUTBOUND",
	OrderComplete:   "ORDER_COMPLETE",
}

// Parse is the inverse of String. The empty string parses to Unset.
func Parse(s string) (Status, error) {
	for st, str := range statusStrings {
		if str == s {
			return st, nil
		}
	}
	return Unset, errs.NewValueIsInvalidErrorWithCause("ihStatus", fmt.Errorf("%q is not a valid IH status", s))
}

func (s Status) Validate() error {
	if _, ok := statusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("ihStatus", fmt.Errorf("%d is not a valid IH status", s))
	}
	return nil
}

// String returns the persisted name; Unset renders as "".
func (s Status) String() string {
	if str, ok := statusStrings[s]; ok {
		return str
	}
	return "INVALID"
}

func (s Status) IsTerminal() bool {
	return s == OrderComplete
}

// Receive moves an unset group to ReceivedFromRSR.
func (s Status) Receive() (Status, error) {
	if s != Unset {
		return s, NewInvalidTransitionError(s, ReceivedFromRSR, "status must be unset")
	}
	return ReceivedFromRSR, nil
}

// SendOutbound moves a received group to SentOutbound. Carrier and tracking
// are checked by the Tracker.
func (s Status) SendOutbound() (Status, error) {
	if s != ReceivedFromRSR {
		return s, NewInvalidTransitionError(s, SentOutbound, "status must be RECEIVED_FROM_RSR")
	}
	return SentOutbound, nil
}

// Complete moves a received or shipped group to OrderComplete.
func (s Status) Complete() (Status, error) {
	if s != ReceivedFromRSR && s != SentOutbound {
		return s, NewInvalidTransitionError(s, OrderComplete, "status must be RECEIVED_FROM_RSR or SENT_OUTBOUND")
	}
	return OrderComplete, nil
}
