// Package compliance holds the value types produced when a cart is gated
// against destination-state restrictions. Rule evaluation itself lives behind
// the ComplianceRules port.
package compliance
