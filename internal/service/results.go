package service

import (
	"context"
	"time"

	"github.com/benbeisheim/arenachess-backend/internal/model"
	"github.com/rs/zerolog"
)

type PlayerResult struct {
	Name    string        `json:"name"`
	Color   model.Color   `json:"color"`
	Outcome model.Outcome `json:"outcome"`
}

// MatchResult is handed to the recorder once a game has ended. Computer
// players are left out.
type MatchResult struct {
	GameID     string         `json:"gameId"`
	Mode       model.GameMode `json:"mode"`
	Results    []PlayerResult `json:"results"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// ResultRecorder persists finished games, e.g. into a leaderboard.
type ResultRecorder interface {
	RecordResult(ctx context.Context, result MatchResult) error
}

// LogRecorder writes results to the log instead of storing them.
type LogRecorder struct {
	log zerolog.Logger
}

func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log.With().Str("component", "results").Logger()}
}

func (r *LogRecorder) RecordResult(_ context.Context, result MatchResult) error {
	for _, pr := range result.Results {
		r.log.Info().
			Str("game_id", result.GameID).
			Str("mode", string(result.Mode)).
			Str("player", pr.Name).
			Str("color", string(pr.Color)).
			Str("outcome", string(pr.Outcome)).
			Msg("match result")
	}
	return nil
}

func buildMatchResult(s *GameSession, finishedAt time.Time) (MatchResult, bool) {
	result := MatchResult{GameID: s.ID, Mode: s.Mode, FinishedAt: finishedAt, Results: []PlayerResult{}}
	for _, player := range s.Players {
		if player.IsComputer {
			continue
		}
		outcome, ok := s.state.OutcomeFor(player.Color)
		if !ok {
			return MatchResult{}, false
		}
		result.Results = append(result.Results, PlayerResult{Name: player.Name, Color: player.Color, Outcome: outcome})
	}
	return result, true
}
