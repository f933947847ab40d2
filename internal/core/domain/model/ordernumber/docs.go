// Package ordernumber defines the customer-visible identifier minted for each
// shipment group. Numbers are immutable once minted.
package ordernumber
