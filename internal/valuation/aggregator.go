package valuation

import (
	"sort"

	"github.com/VeritasForge/snowball/internal/models"
)

// Recompute folds cash and the raw fields of every asset into a fully
// derived account snapshot. The total asset value is computed first and
// every asset is then calculated against that same total, so weights and
// targets are mutually consistent within one pass. The input is not
// modified.
func Recompute(acc models.Account) models.Account {
	assets := make([]models.Asset, len(acc.Assets))
	copy(assets, acc.Assets)

	var currentSum, investedSum float64
	for _, a := range assets {
		currentSum += a.CurrentPrice * a.Quantity
		investedSum += a.AvgPrice * a.Quantity
	}
	total := currentSum + acc.Cash

	for i, a := range assets {
		assets[i] = Calculate(a, total)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })

	acc.Assets = assets
	acc.TotalAssetValue = total
	acc.TotalInvestedValue = investedSum
	acc.TotalPLAmount = currentSum - investedSum
	if investedSum > 0 {
		acc.TotalPLRate = acc.TotalPLAmount / investedSum * 100
	} else {
		acc.TotalPLRate = 0
	}
	return acc
}

// RecomputeAll derives every account in a snapshot.
func RecomputeAll(accounts []models.Account) []models.Account {
	out := make([]models.Account, len(accounts))
	for i, acc := range accounts {
		out[i] = Recompute(acc)
	}
	return out
}
