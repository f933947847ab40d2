// Package crmsync pushes shipment groups into the CRM system of record.
//
// Every group becomes one deal keyed by its order number; deal lines
// reference products that are upserted by manufacturer part number first.
// All writes are upserts, so a sync can be re-run at any time.
//
// Failures never abort checkout. They are classified as transient (network,
// auth, rate limiting, 5xx), which puts the group on the durable retry queue,
// or permanent (validation), which raises an operations alert.
package crmsync
