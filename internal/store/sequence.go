package store

import (
	"context"
	"fmt"
)

// nextSeq atomically reserves the next global sequence number. It runs on
// the caller's connection, so inside a transaction the row lock is held
// until commit.
func (c conn) nextSeq(ctx context.Context) (int64, error) {
	rows, err := c.query(ctx, "UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val", []any{})
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("next sequence: %w", err)
		}
		return 0, fmt.Errorf("next sequence: counter row missing")
	}
	var next int64
	if err := rows.Scan(&next); err != nil {
		return 0, fmt.Errorf("scan sequence: %w", err)
	}
	return next - 1, nil
}
