package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// CreateRecommendation stores the suggestions verbatim as a JSON document.
func (r *SQLiteRepository) CreateRecommendation(ctx context.Context, rec *core.Recommendation) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	payload, err := json.Marshal(rec.Suggestions)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recommendations (id, user_id, suggestions, date) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(payload), rec.Date.Unix())
	if isForeignKeyViolation(err) {
		return core.Fail(core.KindValidation, "unknown user", nil)
	}
	if err != nil {
		return fmt.Errorf("create recommendation: %w", err)
	}
	return nil
}

// ListRecommendations returns the user's recommendations, newest first.
func (r *SQLiteRepository) ListRecommendations(ctx context.Context, userID string) ([]core.Recommendation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, suggestions, date FROM recommendations
		 WHERE user_id = ? ORDER BY date DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	recs := []core.Recommendation{}
	for rows.Next() {
		var (
			rec     core.Recommendation
			payload string
			date    int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &payload, &date); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Suggestions); err != nil {
			return nil, fmt.Errorf("decode suggestions of %s: %w", rec.ID, err)
		}
		rec.Date = unixTime(date)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
