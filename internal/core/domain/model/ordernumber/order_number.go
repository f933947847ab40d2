package ordernumber

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const (
	// SingleShipmentSuffix marks an order that was not split.
	SingleShipmentSuffix = "0"
	// MaxGroups is the number of letter suffixes available to a split order.
	MaxGroups = 26

	testPrefix = "TEST-"
)

var ErrOrderNumberIsNotConstructed = errors.New("order number must be created via New")

// OrderNumber identifies one shipment group: "1042-0", "1042-A", "TEST-1042-B".
type OrderNumber struct {
	mainSequence int64
	suffix       string
	isTest       bool
	guard        guard.ConstructorGuard
}

func New(mainSequence int64, suffix string, isTest bool) (OrderNumber, error) {
	if mainSequence <= 0 {
		return OrderNumber{}, errs.NewValueIsInvalidErrorWithCause(
			"mainSequence", fmt.Errorf("%d is not greater than 0", mainSequence))
	}
	if !validSuffix(suffix) {
		return OrderNumber{}, errs.NewValueIsInvalidErrorWithCause(
			"suffix", fmt.Errorf("%q is neither %q nor a letter A-Z", suffix, SingleShipmentSuffix))
	}
	return OrderNumber{
		mainSequence: mainSequence,
		suffix:       suffix,
		isTest:       isTest,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func validSuffix(s string) bool {
	if s == SingleShipmentSuffix {
		return true
	}
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
}

// ForGroups numbers groupCount groups of one physical order. A single group gets
// the "0" suffix, otherwise groups are lettered A, B, C in order.
func ForGroups(mainSequence int64, groupCount int, isTest bool) ([]OrderNumber, error) {
	if groupCount < 1 || groupCount > MaxGroups {
		return nil, errs.NewValueIsOutOfRangeError("groupCount", groupCount, 1, MaxGroups)
	}
	if groupCount == 1 {
		n, err := New(mainSequence, SingleShipmentSuffix, isTest)
		if err != nil {
			return nil, err
		}
		return []OrderNumber{n}, nil
	}
	out := make([]OrderNumber, 0, groupCount)
	for i := range groupCount {
		n, err := New(mainSequence, string(rune('A'+i)), isTest)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Parse reads the String form back.
func Parse(s string) (OrderNumber, error) {
	raw := s
	isTest := strings.HasPrefix(raw, testPrefix)
	raw = strings.TrimPrefix(raw, testPrefix)

	main, suffix, ok := strings.Cut(raw, "-")
	if !ok {
		return OrderNumber{}, errs.NewValueIsInvalidErrorWithCause("orderNumber", fmt.Errorf("%q has no suffix", s))
	}
	seq, err := strconv.ParseInt(main, 10, 64)
	if err != nil {
		return OrderNumber{}, errs.NewValueIsInvalidErrorWithCause("orderNumber", err)
	}
	return New(seq, suffix, isTest)
}

func (n OrderNumber) MainSequence() int64 { return n.mainSequence }
func (n OrderNumber) Suffix() string { return n.suffix }
func (n OrderNumber) IsTest() bool { return n.isTest }

func (n OrderNumber) Validate() error {
	return n.guard.Validate(ErrOrderNumberIsNotConstructed)
}

func (n OrderNumber) IsEqual(other OrderNumber) bool {
	return n.mainSequence == other.mainSequence && n.suffix == other.suffix && n.isTest == other.isTest
}

func (n OrderNumber) String() string {
	if n.guard.Validate(nil) != nil {
		return ""
	}
	s := fmt.Sprintf("%d-%s", n.mainSequence, n.suffix)
	if n.isTest {
		return testPrefix + s
	}
	return s
}
