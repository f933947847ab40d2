// Package order provides the Order aggregate: the header of one physical
// checkout and the shipment groups it was split into.
//
// Key business rules:
//   - An order always has at least one shipment group
//   - Group totals add up to the cart total
//   - All groups of an order share one main sequence number
//   - Test and production orders are numbered independently
package order
