package valuation

import (
	"math"
	"testing"

	"github.com/VeritasForge/snowball/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateFullyInvestedAsset(t *testing.T) {
	asset := models.Asset{
		ID:           1,
		Name:         "Index Fund",
		Category:     models.CategoryStock,
		TargetWeight: 100,
		CurrentPrice: 10000,
		AvgPrice:     9000,
		Quantity:     10,
	}

	got := Calculate(asset, 100000)

	if got.CurrentValue != 100000 {
		t.Errorf("expected current_value 100000, got %v", got.CurrentValue)
	}
	if got.InvestedAmount != 90000 {
		t.Errorf("expected invested_amount 90000, got %v", got.InvestedAmount)
	}
	if got.PLAmount != 10000 {
		t.Errorf("expected pl_amount 10000, got %v", got.PLAmount)
	}
	if !almostEqual(got.PLRate, 10000.0/90000.0*100) {
		t.Errorf("expected pl_rate ~11.11, got %v", got.PLRate)
	}
	if got.CurrentWeight != 100 {
		t.Errorf("expected current_weight 100, got %v", got.CurrentWeight)
	}
	if got.TargetValue != 100000 {
		t.Errorf("expected target_value 100000, got %v", got.TargetValue)
	}
	if got.DiffValue != 0 {
		t.Errorf("expected diff_value 0, got %v", got.DiffValue)
	}
	if got.ActionQuantity != 0 {
		t.Errorf("expected action_quantity 0, got %v", got.ActionQuantity)
	}
	if got.Action != models.ActionHold {
		t.Errorf("expected HOLD, got %v", got.Action)
	}
}

func TestCalculateSellSignalFloors(t *testing.T) {
	asset := models.Asset{
		TargetWeight: 50,
		CurrentPrice: 10000,
		AvgPrice:     9000,
		Quantity:     10,
	}

	got := Calculate(asset, 100000)

	if got.TargetValue != 50000 {
		t.Errorf("expected target_value 50000, got %v", got.TargetValue)
	}
	if got.DiffValue != -50000 {
		t.Errorf("expected diff_value -50000, got %v", got.DiffValue)
	}
	if got.ActionQuantity != -5 {
		t.Errorf("expected action_quantity -5, got %v", got.ActionQuantity)
	}
	if got.Action != models.ActionSell {
		t.Errorf("expected SELL, got %v", got.Action)
	}
}

// A buy signal for a fractional share count must floor toward zero
// deviation rather than round up.
func TestCalculateBuySignalFloors(t *testing.T) {
	asset := models.Asset{
		TargetWeight: 100,
		CurrentPrice: 3000,
		Quantity:     0,
	}

	// diff 10000 / price 3000 = 3.33 -> buy 3, never 4
	got := Calculate(asset, 10000)
	if got.ActionQuantity != 3 {
		t.Errorf("expected action_quantity 3, got %v", got.ActionQuantity)
	}
	if got.Action != models.ActionBuy {
		t.Errorf("expected BUY, got %v", got.Action)
	}
}

func TestCalculateZeroPriceProducesNoSignal(t *testing.T) {
	asset := models.Asset{
		TargetWeight: 80,
		CurrentPrice: 0,
		AvgPrice:     500,
		Quantity:     4,
	}

	got := Calculate(asset, 100000)

	if got.CurrentWeight != 0 {
		t.Errorf("expected current_weight 0 for zero-price asset, got %v", got.CurrentWeight)
	}
	if got.ActionQuantity != 0 {
		t.Errorf("expected action_quantity 0 for zero-price asset, got %v", got.ActionQuantity)
	}
}

func TestCalculateZeroDenominatorsNeverNaN(t *testing.T) {
	asset := models.Asset{
		TargetWeight: 50,
		CurrentPrice: 0,
		AvgPrice:     0,
		Quantity:     0,
	}

	got := Calculate(asset, 0)

	for name, v := range map[string]float64{
		"pl_rate":        got.PLRate,
		"current_weight": got.CurrentWeight,
		"target_value":   got.TargetValue,
		"diff_value":     got.DiffValue,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is %v, expected finite value", name, v)
		}
	}
	if got.PLRate != 0 || got.CurrentWeight != 0 {
		t.Errorf("expected zero rates for zero denominators, got pl_rate=%v weight=%v", got.PLRate, got.CurrentWeight)
	}
}

// Stale derived values on the input must not leak through: Calculate
// rebuilds every derived field from the raw ones.
func TestCalculateDiscardsStaleDerivedFields(t *testing.T) {
	asset := models.Asset{
		CurrentPrice:   100,
		Quantity:       1,
		CurrentValue:   99999,
		PLRate:         42,
		ActionQuantity: 7,
		Action:         models.ActionBuy,
	}

	got := Calculate(asset, 0)
	if got.CurrentValue != 100 {
		t.Errorf("expected current_value 100, got %v", got.CurrentValue)
	}
	if got.PLRate != 0 {
		t.Errorf("expected pl_rate 0, got %v", got.PLRate)
	}
	// total value 0 means diff is -100, price 100 -> sell 1
	if got.ActionQuantity != -1 || got.Action != models.ActionSell {
		t.Errorf("expected sell signal of 1, got %v/%v", got.Action, got.ActionQuantity)
	}
}
