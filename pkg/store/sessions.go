package store

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"github.com/kotoba-lab/sensei/pkg/models"
)

const sessionColumns = "id, started_at, ended_at, cards_reviewed, correct, incorrect"

// OpenSession starts a new study session with zeroed counters.
func (s *Store) OpenSession(ctx context.Context, startedAt time.Time) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO study_sessions (started_at) VALUES ($1) RETURNING "+sessionColumns,
		startedAt)
	return scanSession(row)
}

// GetSession returns one study session by id.
func (s *Store) GetSession(ctx context.Context, id int) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM study_sessions WHERE id = $1", id)
	return scanSession(row)
}

// CloseSession stamps ended_at on an open session. Closing an already
// closed session keeps the original timestamp, so the call is idempotent.
func (s *Store) CloseSession(ctx context.Context, id int, endedAt time.Time) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE study_sessions SET ended_at = COALESCE(ended_at, $2)
		 WHERE id = $1
		 RETURNING `+sessionColumns,
		id, endedAt)
	return scanSession(row)
}

// SweepOpenSessions closes sessions that started before the cutoff and were
// never ended. Each gets ended_at set to its latest logged review, falling
// back to started_at for sessions with no reviews. Returns the number of
// sessions closed; re-running is a no-op.
func (s *Store) SweepOpenSessions(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE study_sessions ss
		 SET ended_at = COALESCE(
		   (SELECT MAX(rl.reviewed_at) FROM review_log rl WHERE rl.session_id = ss.id),
		   ss.started_at)
		 WHERE ss.ended_at IS NULL AND ss.started_at < $1`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep open sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept sessions: %w", err)
	}
	return int(n), nil
}

// CloseAllOpen stamps ended_at on every open session. Used at shutdown so
// no session is left dangling across restarts.
func (s *Store) CloseAllOpen(ctx context.Context, endedAt time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE study_sessions SET ended_at = $1 WHERE ended_at IS NULL", endedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to close open sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count closed sessions: %w", err)
	}
	return int(n), nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		sess    models.Session
		endedAt stdsql.NullTime
	)
	err := row.Scan(&sess.ID, &sess.StartedAt, &endedAt,
		&sess.CardsReviewed, &sess.Correct, &sess.Incorrect)
	if err == stdsql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}
