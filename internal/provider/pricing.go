package provider

import "strings"

// modelPricing holds USD cost per million tokens.
type modelPricing struct {
	inputPerMTok  float64
	outputPerMTok float64
}

// pricingTable is matched by model-name prefix, longest prefix first.
var pricingTable = []struct {
	prefix string
	modelPricing
}{
	{"claude-opus-4", modelPricing{15.00, 75.00}},
	{"claude-sonnet-4", modelPricing{3.00, 15.00}},
	{"claude-haiku-4", modelPricing{1.00, 5.00}},
	{"claude-3-5-haiku", modelPricing{0.80, 4.00}},
}

// defaultPricing is used for unknown models so cost totals stay
// plausible rather than silently zero.
var defaultPricing = modelPricing{3.00, 15.00}

// EstimateCost returns the USD cost of one call's token usage.
func EstimateCost(modelName string, tokensIn, tokensOut int) float64 {
	p := defaultPricing
	for _, entry := range pricingTable {
		if strings.HasPrefix(modelName, entry.prefix) {
			p = entry.modelPricing
			break
		}
	}
	return float64(tokensIn)/1e6*p.inputPerMTok + float64(tokensOut)/1e6*p.outputPerMTok
}
