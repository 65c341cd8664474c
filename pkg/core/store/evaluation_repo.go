package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"evalup/pkg/core/archetype"
	"evalup/pkg/core/evaluation"
)

// ErrNotFound is returned when a session has no stored evaluation.
var ErrNotFound = eris.New("store: evaluation not found")

// Record is one stored evaluation.
type Record struct {
	ID           uuid.UUID          `json:"id"`
	SessionID    string             `json:"session_id"`
	UserID       string             `json:"user_id,omitempty"`
	Archetype    archetype.ID       `json:"archetype"`
	HasValuation bool               `json:"has_valuation"`
	Result       *evaluation.Result `json:"result"`
	CreatedAt    time.Time          `json:"created_at"`
}

// EvaluationRepo stores evaluation records.
type EvaluationRepo struct {
	pool Pool
	now  func() time.Time
}

// NewEvaluationRepo creates a repository on pool.
func NewEvaluationRepo(pool Pool) *EvaluationRepo {
	return &EvaluationRepo{pool: pool, now: time.Now}
}

const recordColumns = `id, session_id, user_id, archetype, has_valuation, result, created_at`

// Save inserts rec, filling ID and CreatedAt when unset. Existing records are
// never updated.
func (r *EvaluationRepo) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Result == nil {
		return eris.New("store: nil evaluation")
	}
	if rec.SessionID == "" {
		return eris.New("store: session id required")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}
	rec.Archetype = rec.Result.Sector.Archetype
	rec.HasValuation = rec.Result.HasValuation

	data, err := json.Marshal(rec.Result)
	if err != nil {
		return eris.Wrap(err, "store: marshal evaluation")
	}

	query := `INSERT INTO evaluations (` + recordColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.pool.Exec(ctx, query,
		rec.ID.String(), rec.SessionID, rec.UserID, string(rec.Archetype), rec.HasValuation, data, rec.CreatedAt)
	if err != nil {
		return eris.Wrap(err, "store: save evaluation")
	}
	return nil
}

// Latest returns the most recent evaluation of a session.
func (r *EvaluationRepo) Latest(ctx context.Context, sessionID string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM evaluations
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "session %s", sessionID)
		}
		return nil, eris.Wrap(err, "store: load latest evaluation")
	}
	return rec, nil
}

// History returns every evaluation of a session, oldest first.
func (r *EvaluationRepo) History(ctx context.Context, sessionID string) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM evaluations
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "store: query history")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan history")
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate history")
	}
	if len(out) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "session %s", sessionID)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec  Record
		id   string
		arch string
		data []byte
	)
	if err := row.Scan(&id, &rec.SessionID, &rec.UserID, &arch, &rec.HasValuation, &data, &rec.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, eris.Wrapf(err, "store: invalid id %q", id)
	}
	rec.ID = parsed
	rec.Archetype = archetype.ID(arch)

	var result evaluation.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal evaluation")
	}
	rec.Result = &result
	return &rec, nil
}
