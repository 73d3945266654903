// Package strategy maps a classification and accumulated failure
// history to the concrete parameters of one reasoning attempt.
package strategy

import (
	"github.com/revqlabs/revq/internal/classify"
	"github.com/revqlabs/revq/internal/config"
	"github.com/revqlabs/revq/internal/model"
)

// Strategy is the tunable envelope for a single reasoning attempt.
// Values are never mutated in place: every retry produces a new one.
type Strategy struct {
	ModelTier       model.Tier
	MaxOutputTokens int
	Temperature     float64
	SummarizeInput  bool
	ChunkInput      bool
}

// Select computes the strategy for the next attempt. The first attempt
// (no observed failures) materializes the classifier's suggestion with
// default settings. On retry, each observed failure kind contributes
// one mutation; mutations are cumulative and order-independent, so a
// run that hit both rate_limited and context_too_long gets both.
func Select(cls classify.Classification, failures []model.FailureKind, cfg config.Config) Strategy {
	s := Strategy{
		ModelTier:       cls.SuggestedModelTier,
		MaxOutputTokens: cfg.Reasoning.MaxOutputTokens,
		Temperature:     0,
	}

	// A diff below the simple threshold does not warrant the capable
	// tier unless risk demands it. Zero means the size is unknown and
	// the classifier's suggestion stands.
	if cls.LinesChanged > 0 && cls.LinesChanged < cfg.Reasoning.SimpleThresholdLines &&
		!cls.RiskLevel.AtLeast(model.RiskHigh) {
		s.ModelTier = model.TierCheap
	}

	for _, kind := range failures {
		switch kind {
		case model.FailureContextTooLong:
			s.SummarizeInput = true
			s.ChunkInput = true
		case model.FailureLowQuality:
			// Raised temperature is sticky for the rest of the run.
			s.Temperature = cfg.Reasoning.RetryTemperature
		case model.FailureRateLimited:
			s.ModelTier = model.TierCheap
		}
	}

	return s
}

// Model resolves the configured model name for the strategy's tier.
func (s Strategy) Model(cfg config.Config) string {
	if s.ModelTier == model.TierCapable {
		return cfg.Reasoning.CapableModel
	}
	return cfg.Reasoning.CheapModel
}
