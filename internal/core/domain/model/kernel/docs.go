// Package kernel holds the value objects shared by every aggregate in the
// fulfillment domain: identifiers, US state codes and postal addresses.
package kernel
