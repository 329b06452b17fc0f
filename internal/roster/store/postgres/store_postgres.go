// Package postgres persists persons, duty segments, and status snapshots
// in PostgreSQL through database/sql (pgx stdlib driver).
//
// Commit wraps each ChangeSet in one transaction that first takes a row
// lock on the person, so concurrent commits for the same person serialize;
// the baseline segment count detects a racing insertion that slipped in
// before the lock and fails the commit for retry. The invariant guard runs
// inside the same transaction, against the state that transaction sees.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"roster/internal/roster/guard"
	"roster/internal/roster/models"
	"roster/pkg/dates"
	"roster/pkg/platform/sentinel"
)

const defaultCommitTimeout = 5 * time.Second

type Store struct {
	db            *sql.DB
	commitTimeout time.Duration
}

func New(db *sql.DB) *Store {
	return &Store{db: db, commitTimeout: defaultCommitTimeout}
}

func (s *Store) CreatePerson(ctx context.Context, p *models.Person) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO persons (id, name, normalized_name, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, models.NormalizedName(p.Name), p.CreatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (s *Store) RenamePerson(ctx context.Context, id uuid.UUID, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE persons SET name = $2, normalized_name = $3 WHERE id = $1`,
		id, name, models.NormalizedName(name))
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("rename person: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename person: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) FindPersonByName(ctx context.Context, name string) (*models.Person, error) {
	var p models.Person
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM persons WHERE name = $1`, name).
		Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find person by name: %w", err)
	}
	return &p, nil
}

func (s *Store) ListPeople(ctx context.Context) ([]models.PersonStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.created_at,
		       s.current_rank, s.current_title, s.career_start, s.career_end
		FROM persons p
		LEFT JOIN status_snapshots s ON s.person_id = p.id
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var out []models.PersonStatus
	for rows.Next() {
		var (
			status       models.PersonStatus
			rank, title  sql.NullString
			careerStart  sql.NullTime
			careerEnd    sql.NullTime
		)
		if err := rows.Scan(&status.Person.ID, &status.Person.Name, &status.Person.CreatedAt,
			&rank, &title, &careerStart, &careerEnd); err != nil {
			return nil, fmt.Errorf("list people: scan: %w", err)
		}
		if careerStart.Valid {
			snap := &models.StatusSnapshot{
				PersonID:    status.Person.ID,
				CareerStart: dates.AtMidnight(careerStart.Time),
			}
			if rank.Valid {
				snap.CurrentRank = &rank.String
			}
			if title.Valid {
				snap.CurrentTitle = &title.String
			}
			if careerEnd.Valid {
				end := dates.AtMidnight(careerEnd.Time)
				snap.CareerEnd = &end
			}
			status.Snapshot = snap
		}
		out = append(out, status)
	}
	return out, rows.Err()
}

func (s *Store) ListDutySegments(ctx context.Context, personID uuid.UUID) ([]models.DutySegment, error) {
	return listSegments(ctx, s.db, personID)
}

func (s *Store) FindSegment(ctx context.Context, id uuid.UUID) (*models.DutySegment, error) {
	var (
		seg models.DutySegment
		end sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, person_id, rank, title, start_date, end_date FROM duty_segments WHERE id = $1`, id).
		Scan(&seg.ID, &seg.PersonID, &seg.Rank, &seg.Title, &seg.Start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find segment: %w", err)
	}
	normalizeSegment(&seg, end)
	return &seg, nil
}

func (s *Store) GetSnapshot(ctx context.Context, personID uuid.UUID) (*models.StatusSnapshot, error) {
	var (
		snap        models.StatusSnapshot
		rank, title sql.NullString
		careerEnd   sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT person_id, current_rank, current_title, career_start, career_end
		 FROM status_snapshots WHERE person_id = $1`, personID).
		Scan(&snap.PersonID, &rank, &title, &snap.CareerStart, &careerEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap.CareerStart = dates.AtMidnight(snap.CareerStart)
	if rank.Valid {
		snap.CurrentRank = &rank.String
	}
	if title.Valid {
		snap.CurrentTitle = &title.String
	}
	if careerEnd.Valid {
		end := dates.AtMidnight(careerEnd.Time)
		snap.CareerEnd = &end
	}
	return &snap, nil
}

// Commit applies the change set atomically. See the package comment for
// the locking and conflict-detection strategy.
func (s *Store) Commit(ctx context.Context, cs models.ChangeSet) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commitTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serializes commits per person and confirms the person exists.
	var lockedID uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM persons WHERE id = $1 FOR UPDATE`, cs.PersonID).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("commit: lock person: %w", err)
	}

	view := txView{tx: tx}
	if cs.BaselineSegments >= 0 {
		committed, err := view.CountSegments(ctx, cs.PersonID)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if committed != cs.BaselineSegments {
			return sentinel.ErrConflict
		}
	}

	if err := guard.Check(ctx, view, cs); err != nil {
		return err
	}

	for _, id := range cs.RemoveSegmentIDs {
		res, err := tx.ExecContext(ctx, `DELETE FROM duty_segments WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("commit: delete segment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sentinel.ErrNotFound
		}
	}
	for _, seg := range cs.UpdateSegments {
		res, err := tx.ExecContext(ctx,
			`UPDATE duty_segments SET rank = $2, title = $3, start_date = $4, end_date = $5 WHERE id = $1`,
			seg.ID, seg.Rank, seg.Title, seg.Start, nullDay(seg.End))
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		if err != nil {
			return fmt.Errorf("commit: update segment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sentinel.ErrNotFound
		}
	}
	for _, seg := range cs.AddSegments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO duty_segments (id, person_id, rank, title, start_date, end_date)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			seg.ID, seg.PersonID, seg.Rank, seg.Title, seg.Start, nullDay(seg.End))
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		if err != nil {
			return fmt.Errorf("commit: insert segment: %w", err)
		}
	}
	if cs.RemoveSnapshot {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM status_snapshots WHERE person_id = $1`, cs.PersonID); err != nil {
			return fmt.Errorf("commit: delete snapshot: %w", err)
		}
	} else if cs.Snapshot != nil {
		snap := cs.Snapshot
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO status_snapshots (person_id, current_rank, current_title, career_start, career_end)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (person_id) DO UPDATE SET
				current_rank = EXCLUDED.current_rank,
				current_title = EXCLUDED.current_title,
				career_start = EXCLUDED.career_start,
				career_end = EXCLUDED.career_end`,
			snap.PersonID, snap.CurrentRank, snap.CurrentTitle, snap.CareerStart, nullDay(snap.CareerEnd)); err != nil {
			return fmt.Errorf("commit: upsert snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type dbtx interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listSegments(ctx context.Context, db dbtx, personID uuid.UUID) ([]models.DutySegment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, person_id, rank, title, start_date, end_date
		 FROM duty_segments WHERE person_id = $1 ORDER BY start_date ASC`, personID)
	if err != nil {
		return nil, fmt.Errorf("list duty segments: %w", err)
	}
	defer rows.Close()

	var out []models.DutySegment
	for rows.Next() {
		var (
			seg models.DutySegment
			end sql.NullTime
		)
		if err := rows.Scan(&seg.ID, &seg.PersonID, &seg.Rank, &seg.Title, &seg.Start, &end); err != nil {
			return nil, fmt.Errorf("list duty segments: scan: %w", err)
		}
		normalizeSegment(&seg, end)
		out = append(out, seg)
	}
	return out, rows.Err()
}

// txView computes guard inputs inside the commit's own transaction so the
// counts reflect the committed rows this transaction can see, not a stale
// snapshot.
type txView struct{ tx *sql.Tx }

func (v txView) CountSegments(ctx context.Context, personID uuid.UUID) (int, error) {
	var n int
	err := v.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM duty_segments WHERE person_id = $1`, personID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count segments: %w", err)
	}
	return n, nil
}

func (v txView) HasSnapshot(ctx context.Context, personID uuid.UUID) (bool, error) {
	var exists bool
	err := v.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM status_snapshots WHERE person_id = $1)`, personID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check snapshot: %w", err)
	}
	return exists, nil
}

func normalizeSegment(seg *models.DutySegment, end sql.NullTime) {
	seg.Start = dates.AtMidnight(seg.Start)
	if end.Valid {
		e := dates.AtMidnight(end.Time)
		seg.End = &e
	}
}

func nullDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// error (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
