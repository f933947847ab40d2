// Package services holds pure domain services of the fulfillment domain.
//
// The package includes:
//   - ShipmentGrouper: splits a classified cart into shipment groups
package services
