// Package shipment models the groups a checkout is split into.
//
// Every cart line belongs to exactly one Group; a Group holds only items of a
// single fulfillment outcome and carries the consignee variant that outcome
// requires (FFLConsignee for *_FFL, CustomerConsignee otherwise). IH custody
// status is only meaningful for IH_FFL groups.
package shipment
