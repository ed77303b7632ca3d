package store

import (
	"strconv"
	"strings"

	"github.com/VeritasForge/snowball/internal/models"
)

// AssetEdit is one field mutation from the closed set of editable raw
// fields. Each edit knows how to apply itself to an in-memory asset and
// how to express itself as a wire patch, so an invalid field name cannot
// be constructed.
type AssetEdit interface {
	apply(a *models.Asset)
	patch(p *models.AssetPatch)
}

// SetName renames the asset.
type SetName string

func (e SetName) apply(a *models.Asset) { a.Name = string(e) }
func (e SetName) patch(p *models.AssetPatch) { p.Name = ptr(string(e)) }

// SetCode changes the lookup symbol.
type SetCode string

func (e SetCode) apply(a *models.Asset) { a.Code = string(e) }
func (e SetCode) patch(p *models.AssetPatch) { p.Code = ptr(string(e)) }

// SetCategory reclassifies the asset.
type SetCategory models.Category

func (e SetCategory) apply(a *models.Asset) { a.Category = models.Category(e) }
func (e SetCategory) patch(p *models.AssetPatch) { p.Category = ptr(models.Category(e)) }

// SetTargetWeight changes the desired allocation percentage.
type SetTargetWeight float64

func (e SetTargetWeight) apply(a *models.Asset) { a.TargetWeight = float64(e) }
func (e SetTargetWeight) patch(p *models.AssetPatch) { p.TargetWeight = ptr(float64(e)) }

// SetCurrentPrice changes the market price.
type SetCurrentPrice float64

func (e SetCurrentPrice) apply(a *models.Asset) { a.CurrentPrice = float64(e) }
func (e SetCurrentPrice) patch(p *models.AssetPatch) { p.CurrentPrice = ptr(float64(e)) }

// SetAvgPrice changes the average purchase price.
type SetAvgPrice float64

func (e SetAvgPrice) apply(a *models.Asset) { a.AvgPrice = float64(e) }
func (e SetAvgPrice) patch(p *models.AssetPatch) { p.AvgPrice = ptr(float64(e)) }

// SetQuantity changes the held share count.
type SetQuantity float64

func (e SetQuantity) apply(a *models.Asset) { a.Quantity = float64(e) }
func (e SetQuantity) patch(p *models.AssetPatch) { p.Quantity = ptr(float64(e)) }

// ParseAmount converts a display string, possibly carrying grouping
// separators, into a number. Unparsable input is treated as zero.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseStrict parses a display amount but distinguishes unparsable input
// from zero, for fields where a typo must not wipe a balance.
func parseStrict(s string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

func mergePatch(edits []AssetEdit) models.AssetPatch {
	var p models.AssetPatch
	for _, e := range edits {
		e.patch(&p)
	}
	return p
}

func ptr[T any](v T) *T { return &v }
