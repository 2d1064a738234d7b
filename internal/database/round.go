// internal/database/round.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordRoundResult persists the outcome of a finished round: one row for the
// round itself plus one result row per player with their running score.
func RecordRoundResult(ctx context.Context, roomID, winnerID string, scores map[string]int) error {
	if DB == nil {
		return nil
	}
	roundID := uuid.New()
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		insRound := `
			INSERT INTO rounds (id, room_id, winner_id, finished_at)
			VALUES ($1, $2, $3, NOW())
		`
		if _, e := tx.Exec(ctx, insRound, roundID, roomID, winnerID); e != nil {
			return e
		}
		insResult := `
			INSERT INTO round_results (round_id, player_id, score, did_win)
			VALUES ($1, $2, $3, $4)
		`
		for playerID, score := range scores {
			if _, e := tx.Exec(ctx, insResult, roundID, playerID, score, playerID == winnerID); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert round results: %w", err)
	}
	return nil
}
