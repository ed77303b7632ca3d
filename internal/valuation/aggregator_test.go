package valuation

import (
	"reflect"
	"testing"

	"github.com/VeritasForge/snowball/internal/models"
)

func sampleAccount() models.Account {
	return models.Account{
		ID:   1,
		Name: "Main",
		Cash: 50000,
		Assets: []models.Asset{
			{ID: 2, Name: "Tech ETF", TargetWeight: 40, CurrentPrice: 10000, AvgPrice: 8000, Quantity: 10},
			{ID: 1, Name: "Bond ETF", TargetWeight: 30, CurrentPrice: 5000, AvgPrice: 5500, Quantity: 20},
		},
	}
}

func TestRecomputeTotals(t *testing.T) {
	got := Recompute(sampleAccount())

	// 10*10000 + 20*5000 + 50000 cash
	if got.TotalAssetValue != 250000 {
		t.Errorf("expected total_asset_value 250000, got %v", got.TotalAssetValue)
	}
	// 10*8000 + 20*5500
	if got.TotalInvestedValue != 190000 {
		t.Errorf("expected total_invested_value 190000, got %v", got.TotalInvestedValue)
	}
	if got.TotalPLAmount != 10000 {
		t.Errorf("expected total_pl_amount 10000, got %v", got.TotalPLAmount)
	}
	if !almostEqual(got.TotalPLRate, 10000.0/190000.0*100) {
		t.Errorf("unexpected total_pl_rate %v", got.TotalPLRate)
	}
}

// Sum of asset current values plus cash must equal the account total for
// every recompute, exactly.
func TestRecomputeValueIdentity(t *testing.T) {
	got := Recompute(sampleAccount())

	var sum float64
	for _, a := range got.Assets {
		sum += a.CurrentValue
	}
	if sum+got.Cash != got.TotalAssetValue {
		t.Errorf("sum(current_value)+cash = %v, want %v", sum+got.Cash, got.TotalAssetValue)
	}
}

// Every asset's weight and target must be derived from the post-change
// total, never a stale one.
func TestRecomputeUsesSingleTotal(t *testing.T) {
	acc := sampleAccount()
	got := Recompute(acc)

	for _, a := range got.Assets {
		wantWeight := a.CurrentValue / got.TotalAssetValue * 100
		if !almostEqual(a.CurrentWeight, wantWeight) {
			t.Errorf("asset %d: current_weight %v, want %v", a.ID, a.CurrentWeight, wantWeight)
		}
		wantTarget := got.TotalAssetValue * a.TargetWeight / 100
		if !almostEqual(a.TargetValue, wantTarget) {
			t.Errorf("asset %d: target_value %v, want %v", a.ID, a.TargetValue, wantTarget)
		}
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	once := Recompute(sampleAccount())
	twice := Recompute(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second recompute drifted:\nfirst:  %+v\nsecond: %+v", once, twice)
	}
}

func TestRecomputeSortsAssetsByID(t *testing.T) {
	got := Recompute(sampleAccount())
	if got.Assets[0].ID != 1 || got.Assets[1].ID != 2 {
		t.Errorf("expected assets sorted by id, got %d then %d", got.Assets[0].ID, got.Assets[1].ID)
	}
}

func TestRecomputeDoesNotMutateInput(t *testing.T) {
	acc := sampleAccount()
	Recompute(acc)
	if acc.Assets[0].CurrentValue != 0 {
		t.Errorf("input asset mutated: current_value %v", acc.Assets[0].CurrentValue)
	}
}

func TestRecomputeEmptyAccount(t *testing.T) {
	got := Recompute(models.Account{ID: 1, Cash: 1234})

	if got.TotalAssetValue != 1234 {
		t.Errorf("expected total_asset_value 1234, got %v", got.TotalAssetValue)
	}
	if got.TotalInvestedValue != 0 || got.TotalPLAmount != 0 || got.TotalPLRate != 0 {
		t.Errorf("expected zero invested/pl totals, got %+v", got)
	}
}

// Updating cash must re-derive every asset against the new total.
func TestRecomputeAfterCashChange(t *testing.T) {
	acc := models.Account{
		ID:   1,
		Cash: 0,
		Assets: []models.Asset{
			{ID: 1, TargetWeight: 100, CurrentPrice: 10000, AvgPrice: 9000, Quantity: 10},
		},
	}
	acc = Recompute(acc)
	if acc.TotalAssetValue != 100000 {
		t.Fatalf("expected prior total 100000, got %v", acc.TotalAssetValue)
	}

	acc.Cash = 1000000
	acc = Recompute(acc)

	if acc.TotalAssetValue != 1100000 {
		t.Errorf("expected total_asset_value 1100000, got %v", acc.TotalAssetValue)
	}
	a := acc.Assets[0]
	if !almostEqual(a.CurrentWeight, 100000.0/1100000.0*100) {
		t.Errorf("current_weight %v not recomputed against new total", a.CurrentWeight)
	}
	if a.TargetValue != 1100000 {
		t.Errorf("expected target_value 1100000, got %v", a.TargetValue)
	}
	if a.DiffValue != 1000000 {
		t.Errorf("expected diff_value 1000000, got %v", a.DiffValue)
	}
	if a.ActionQuantity != 100 {
		t.Errorf("expected action_quantity 100, got %v", a.ActionQuantity)
	}
}
