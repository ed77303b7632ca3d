package finance

import (
	"strings"

	"github.com/VeritasForge/snowball/internal/models"
)

var bondKeywords = []string{
	"BOND", "TREASURY", "TIPS", "TLT", "IEF", "SHY", "BND", "AGG", "JNK", "HYG",
}

var commodityKeywords = []string{
	"GOLD", "SILVER", "COPPER", "OIL", "COMMODITY", "GLD", "IAU", "SLV", "DBC", "PDBC", "USO",
}

var cashKeywords = []string{
	"USDOLLAR", "DOLLAR FUTURES", "SHV", "BIL",
}

// InferCategory classifies an asset by keywords in its name and code.
// Bonds win over commodities ("Gold Bond" is a bond), and anything
// unrecognized is a stock.
func InferCategory(name, code string) models.Category {
	haystack := strings.ToUpper(name + " " + code)

	for _, k := range bondKeywords {
		if strings.Contains(haystack, k) {
			return models.CategoryBond
		}
	}
	for _, k := range commodityKeywords {
		if strings.Contains(haystack, k) {
			return models.CategoryCommodity
		}
	}
	for _, k := range cashKeywords {
		if strings.Contains(haystack, k) {
			return models.CategoryCash
		}
	}
	return models.CategoryStock
}
