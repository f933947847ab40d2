package ihstatus

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// MinTrackingLength is the shortest tracking number accepted as plausible.
const MinTrackingLength = 8

type Carrier string

const (
	CarrierUPS   Carrier = "UPS"
	CarrierFedEx Carrier = "FEDEX"
	CarrierUSPS  Carrier = "USPS"
	CarrierOther Carrier = "OTHER"
)

// ParseCarrier accepts any casing and surrounding whitespace.
func ParseCarrier(s string) (Carrier, error) {
	c := Carrier(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CarrierUPS, CarrierFedEx, CarrierUSPS, CarrierOther:
		return c, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("carrier", fmt.Errorf("%q is not one of UPS, FEDEX, USPS, OTHER", s))
	}
}

func (c Carrier) String() string {
	return string(c)
}

// NormalizeTracking trims whitespace and reports whether the result is long enough.
func NormalizeTracking(s string) (string, bool) {
	t := strings.TrimSpace(s)
	return t, len(t) >= MinTrackingLength
}
