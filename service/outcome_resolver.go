package service

import (
	"strings"

	"chesswager/models"
)

// OutcomeRule inspects a match and reports the winning side when it applies
type OutcomeRule interface {
	Name() string
	Evaluate(match *models.MatchRecord, wager *models.Wager) (models.Side, bool)
}

var drawTokens = map[models.ResultToken]struct{}{
	models.ResultStalemate:          {},
	models.ResultAgreed:             {},
	models.ResultRepetition:         {},
	models.ResultInsufficient:       {},
	models.ResultTimeVsInsufficient: {},
	models.ResultFiftyMove:          {},
}

// Losing tokens that count against a winner. Resignation and abandonment are not settled automatically.
var decisiveLossTokens = map[models.ResultToken]struct{}{
	models.ResultCheckmated: {},
	models.ResultTimeout:    {},
}

func isDrawToken(t models.ResultToken) bool {
	_, ok := drawTokens[t]
	return ok
}

func isDecisiveLoss(t models.ResultToken) bool {
	_, ok := decisiveLossTokens[t]
	return ok
}

type drawRule struct{}

func (drawRule) Name() string { return "draw" }

func (drawRule) Evaluate(match *models.MatchRecord, _ *models.Wager) (models.Side, bool) {
	if isDrawToken(match.FirstPlayerResult) && isDrawToken(match.SecondPlayerResult) {
		return models.SideDraw, true
	}
	return "", false
}

type whiteWinRule struct{}

func (whiteWinRule) Name() string { return "white_win" }

func (whiteWinRule) Evaluate(match *models.MatchRecord, _ *models.Wager) (models.Side, bool) {
	if match.FirstPlayerResult == models.ResultWin && isDecisiveLoss(match.SecondPlayerResult) {
		return models.SideWhite, true
	}
	return "", false
}

type blackWinRule struct{}

func (blackWinRule) Name() string { return "black_win" }

func (blackWinRule) Evaluate(match *models.MatchRecord, _ *models.Wager) (models.Side, bool) {
	if match.SecondPlayerResult == models.ResultWin && isDecisiveLoss(match.FirstPlayerResult) {
		return models.SideBlack, true
	}
	return "", false
}

// DefaultOutcomeRules is the evaluation order used in production: draw, white win, black win
func DefaultOutcomeRules() []OutcomeRule {
	return []OutcomeRule{drawRule{}, whiteWinRule{}, blackWinRule{}}
}

// OutcomeResolver maps a located match onto the wager's parties
type OutcomeResolver struct {
	rules []OutcomeRule
}

// NewOutcomeResolver creates a resolver over a fixed rule list. Nil means DefaultOutcomeRules.
func NewOutcomeResolver(rules []OutcomeRule) *OutcomeResolver {
	if rules == nil {
		rules = DefaultOutcomeRules()
	}
	owned := make([]OutcomeRule, len(rules))
	copy(owned, rules)
	return &OutcomeResolver{rules: owned}
}

// Resolve returns challenger, contender, draw or anomaly. The first matching rule decides.
func (r *OutcomeResolver) Resolve(match *models.MatchRecord, wager *models.Wager) models.Outcome {
	if match == nil || wager == nil {
		return models.OutcomeAnomaly
	}

	for _, rule := range r.rules {
		side, ok := rule.Evaluate(match, wager)
		if !ok {
			continue
		}

		var winner string
		switch side {
		case models.SideDraw:
			return models.OutcomeDraw
		case models.SideWhite:
			winner = match.FirstPlayer
		case models.SideBlack:
			winner = match.SecondPlayer
		default:
			return models.OutcomeAnomaly
		}

		winner = strings.ToLower(winner)
		switch winner {
		case strings.ToLower(wager.ChallengerHandle):
			return models.OutcomeChallenger
		case strings.ToLower(wager.OpponentHandle):
			return models.OutcomeContender
		default:
			return models.OutcomeAnomaly
		}
	}

	return models.OutcomeAnomaly
}
