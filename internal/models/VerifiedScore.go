package models

import (
	"fmt"
	"strconv"
	"strings"
)

// VerifiedScore is the summary of a record's Verified votes: exactly one of
// ScoreNeutral, ScorePlusOne or ScoreMinusOne.
type VerifiedScore int8

const (
	ScoreNeutral  VerifiedScore = 0
	ScorePlusOne  VerifiedScore = 1
	ScoreMinusOne VerifiedScore = -1
)

// ScoreVotes reduces a vote list. No votes scores neutral; a +1 anywhere wins
// over a -1, and anything else is neutral. The result does not depend on the
// order of votes.
func ScoreVotes(votes []Vote) VerifiedScore {
	if len(votes) == 0 {
		return ScoreNeutral
	}
	maxVote, minVote := votes[0].Value, votes[0].Value
	for _, v := range votes[1:] {
		maxVote = max(maxVote, v.Value)
		minVote = min(minVote, v.Value)
	}
	switch {
	case maxVote == 1:
		return ScorePlusOne
	case minVote == -1:
		return ScoreMinusOne
	default:
		return ScoreNeutral
	}
}

func (s VerifiedScore) String() string {
	switch s {
	case ScorePlusOne:
		return "+1"
	case ScoreMinusOne:
		return "-1"
	default:
		return "0"
	}
}

// MarshalJSON keeps the historical log format: "+1" as a string, -1 and 0 as numbers.
func (s VerifiedScore) MarshalJSON() ([]byte, error) {
	if s == ScorePlusOne {
		return []byte(`"+1"`), nil
	}
	return []byte(s.String()), nil
}

func (s *VerifiedScore) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*s = ScoreNeutral
		return nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(raw, "+"))
	if err != nil {
		return fmt.Errorf("invalid verified score %q: %w", raw, err)
	}
	switch {
	case n >= 1:
		*s = ScorePlusOne
	case n <= -1:
		*s = ScoreMinusOne
	default:
		*s = ScoreNeutral
	}
	return nil
}
