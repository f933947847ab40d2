package kernel

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// StateCode is a two-letter US postal code for a shipping destination.
type StateCode string

var knownStates = map[StateCode]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {}, "DC": {}, "FL": {},
	"GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {},
	"MD": {}, "MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {}, "NH": {},
	"NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {}, "OK": {}, "OR": {}, "PA": {}, "PR": {},
	"RI": {}, "SC": {}, "SD": {}, "TN": {}, "TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {},
	"WI": {}, "WY": {},
}

// ParseStateCode normalizes case and surrounding whitespace, then rejects
// anything that is not a known US state, DC or PR.
func ParseStateCode(s string) (StateCode, error) {
	code := StateCode(strings.ToUpper(strings.TrimSpace(s)))
	if err := code.Validate(); err != nil {
		return "", err
	}
	return code, nil
}

func (c StateCode) Validate() error {
	if _, ok := knownStates[c]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("state", fmt.Errorf("%q is not a known state code", string(c)))
	}
	return nil
}

func (c StateCode) String() string {
	return string(c)
}
