// Package valuation computes the derived fields of assets and accounts.
// Everything here is pure: the same raw inputs always produce the same
// derived outputs, and no field ever carries NaN or Inf — a zero
// denominator yields zero.
package valuation

import (
	"math"

	"github.com/VeritasForge/snowball/internal/models"
)

// Calculate fills in the derived fields of a single asset against the
// account's total value. Any derived values already present on the input
// are discarded and recomputed, so the function is safe to apply
// repeatedly.
func Calculate(a models.Asset, totalValue float64) models.Asset {
	a.CurrentValue = a.CurrentPrice * a.Quantity
	a.InvestedAmount = a.AvgPrice * a.Quantity
	a.PLAmount = a.CurrentValue - a.InvestedAmount

	if a.InvestedAmount > 0 {
		a.PLRate = a.PLAmount / a.InvestedAmount * 100
	} else {
		a.PLRate = 0
	}

	if totalValue > 0 {
		a.CurrentWeight = a.CurrentValue / totalValue * 100
	} else {
		a.CurrentWeight = 0
	}

	a.TargetValue = totalValue * a.TargetWeight / 100
	a.DiffValue = a.TargetValue - a.CurrentValue

	// Floor, not round: partial-share rebalancing must never over-buy.
	if a.CurrentPrice > 0 {
		a.ActionQuantity = int64(math.Floor(a.DiffValue / a.CurrentPrice))
	} else {
		a.ActionQuantity = 0
	}

	switch {
	case a.ActionQuantity > 0:
		a.Action = models.ActionBuy
	case a.ActionQuantity < 0:
		a.Action = models.ActionSell
	default:
		a.Action = models.ActionHold
	}

	return a
}
