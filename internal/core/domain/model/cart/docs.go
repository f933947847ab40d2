// Package cart models the immutable line items a customer submits at checkout.
//
// Prices use shopspring/decimal; never float64. Classification flags on an Item
// are only trusted after WithMasterData has applied catalog data.
package cart
