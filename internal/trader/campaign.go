package trader

import (
	"context"
	"time"

	"alpha-roller-go/internal/dom"
	"go.uber.org/zap"
)

// CampaignConfig parameterizes one campaign run. It is immutable for
// the duration of the campaign.
type CampaignConfig struct {
	PerRoundAmount float64
	TargetAmount   float64
	MaxRounds      int

	DryRun      bool
	BuyEnabled  bool
	SellEnabled bool

	InterLegDelay   time.Duration
	InterRoundDelay time.Duration
}

// DefaultMaxRounds caps a campaign when no explicit cap is configured.
const DefaultMaxRounds = 200

// CampaignResult summarizes a campaign for display.
type CampaignResult struct {
	// ExecutedAmount is the USDT credit of completed rounds.
	ExecutedAmount float64 `json:"executedAmount"`

	// Rounds counts completed rounds only; a failed attempt is in
	// Results but not counted here.
	Rounds int `json:"rounds"`

	Results []RoundResult `json:"results"`
}

// RunCampaign repeats round trips until the cumulative target is
// reached, a round fails, the round cap is hit, or ctx is cancelled.
// It never returns an error: every failure is captured in the result
// and the campaign simply stops.
func (o *Orchestrator) RunCampaign(ctx context.Context, sess *Session, cfg CampaignConfig) CampaignResult {
	var result CampaignResult

	if cfg.PerRoundAmount <= 0 || cfg.TargetAmount <= 0 {
		o.logger.Warn("Invalid per-round or target amount, campaign not started.",
			zap.Float64("per_round", cfg.PerRoundAmount),
			zap.Float64("target", cfg.TargetAmount))
		return result
	}
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	l := o.logger.With(
		zap.Float64("per_round", cfg.PerRoundAmount),
		zap.Float64("target", cfg.TargetAmount),
		zap.Int("max_rounds", maxRounds),
	)
	l.Info("Starting campaign.")

	accumulated := 0.0
	round := 0

	for accumulated < cfg.TargetAmount && round < maxRounds {
		if ctx.Err() != nil {
			l.Info("Campaign cancelled.", zap.Int("round", round))
			break
		}

		amountThisRound := cfg.PerRoundAmount
		if remaining := cfg.TargetAmount - accumulated; remaining < amountThisRound {
			amountThisRound = remaining
		}
		if amountThisRound <= 0 {
			break
		}
		round++

		rr := o.RunRoundTrip(ctx, sess, RoundRequest{
			AmountUsd:        amountThisRound,
			Round:            round,
			CumulativeBefore: accumulated,
			DryRun:           cfg.DryRun,
			BuyEnabled:       cfg.BuyEnabled,
			SellEnabled:      cfg.SellEnabled,
			InterLegDelay:    cfg.InterLegDelay,
		})
		result.Results = append(result.Results, rr)

		if !rr.Succeeded() {
			// Fail fast: no partial credit is assumed for a broken round.
			l.Warn("Round did not succeed, stopping campaign.", zap.Int("round", round))
			break
		}

		accumulated = rr.CumulativeAfter
		result.Rounds++

		if accumulated >= cfg.TargetAmount {
			break
		}
		if !dom.Sleep(ctx, cfg.InterRoundDelay) {
			l.Info("Campaign cancelled during pacing delay.", zap.Int("round", round))
			break
		}
	}

	result.ExecutedAmount = accumulated
	l.Info("Campaign finished.",
		zap.Float64("executed", result.ExecutedAmount),
		zap.Int("completed_rounds", result.Rounds))
	return result
}
