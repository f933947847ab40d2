// Package services contains application services that combine domain logic
// with ports: the compliance gate and the order number minter.
package services
