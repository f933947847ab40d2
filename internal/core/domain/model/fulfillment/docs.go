// Package fulfillment classifies cart lines onto one of four fulfillment paths.
package fulfillment
