package client

import (
	"sort"

	"quiz-master-client/internal/domain"
)

// StandingEntry is one ranked scoreboard row.
type StandingEntry struct {
	Rank     int
	Player   domain.Player
	Answered bool
}

// ResultSummary is the final leaderboard. Winner is nil when no players
// were recorded (a defined empty state, not an error).
type ResultSummary struct {
	Entries []StandingEntry
	Winner  *domain.Player
}

// Standings ranks players by score descending with ties broken by join
// order, so the ordering is deterministic for identical input and never
// depends on map iteration.
func Standings(players []domain.Player) []StandingEntry {
	ranked := make([]domain.Player, len(players))
	copy(ranked, players)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].JoinOrder < ranked[j].JoinOrder
	})

	entries := make([]StandingEntry, len(ranked))
	for i, p := range ranked {
		entries[i] = StandingEntry{Rank: i + 1, Player: p, Answered: p.HasAnswered}
	}
	return entries
}

// Results produces the final leaderboard, sorted identically to Standings.
// An empty or nil player list yields an empty summary without a winner.
func Results(players []domain.Player) ResultSummary {
	entries := Standings(players)
	summary := ResultSummary{Entries: entries}
	if len(entries) > 0 {
		winner := entries[0].Player
		summary.Winner = &winner
	}
	return summary
}

// TimerState is the escalating display state of the question countdown.
type TimerState int

const (
	TimerNormal TimerState = iota
	TimerWarning
	TimerDanger
)

// TimerStateFor maps remaining seconds onto the display thresholds:
// warning at 10 seconds or less, danger at 5 or less.
func TimerStateFor(remaining int) TimerState {
	switch {
	case remaining <= 5:
		return TimerDanger
	case remaining <= 10:
		return TimerWarning
	default:
		return TimerNormal
	}
}
