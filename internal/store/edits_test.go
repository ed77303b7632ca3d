package store

import (
	"testing"

	"github.com/VeritasForge/snowball/internal/models"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1,000,000", 1000000},
		{"1234.5", 1234.5},
		{" 42 ", 42},
		{"-3.25", -3.25},
		{"", 0},
		{"abc", 0},
		{"12x", 0},
	}
	for _, c := range cases {
		if got := ParseAmount(c.in); got != c.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestEditsApplyAndPatchAgree(t *testing.T) {
	edits := []AssetEdit{
		SetName("Renamed"),
		SetCode("VT"),
		SetCategory(models.CategoryOther),
		SetTargetWeight(33),
		SetCurrentPrice(101.5),
		SetAvgPrice(99),
		SetQuantity(7),
	}

	var a models.Asset
	for _, e := range edits {
		e.apply(&a)
	}
	p := mergePatch(edits)

	if a.Name != "Renamed" || p.Name == nil || *p.Name != "Renamed" {
		t.Errorf("name edit mismatch: asset=%q patch=%v", a.Name, p.Name)
	}
	if a.Code != "VT" || p.Code == nil || *p.Code != "VT" {
		t.Errorf("code edit mismatch")
	}
	if a.Category != models.CategoryOther || p.Category == nil || *p.Category != models.CategoryOther {
		t.Errorf("category edit mismatch")
	}
	if a.TargetWeight != 33 || p.TargetWeight == nil || *p.TargetWeight != 33 {
		t.Errorf("target weight edit mismatch")
	}
	if a.CurrentPrice != 101.5 || p.CurrentPrice == nil || *p.CurrentPrice != 101.5 {
		t.Errorf("current price edit mismatch")
	}
	if a.AvgPrice != 99 || p.AvgPrice == nil || *p.AvgPrice != 99 {
		t.Errorf("avg price edit mismatch")
	}
	if a.Quantity != 7 || p.Quantity == nil || *p.Quantity != 7 {
		t.Errorf("quantity edit mismatch")
	}
}

func TestMergePatchLeavesUneditedFieldsNil(t *testing.T) {
	p := mergePatch([]AssetEdit{SetTargetWeight(10)})
	if p.Name != nil || p.Code != nil || p.Category != nil || p.CurrentPrice != nil || p.AvgPrice != nil || p.Quantity != nil {
		t.Errorf("expected untouched fields to stay nil: %+v", p)
	}
}
