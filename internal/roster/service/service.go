package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"roster/internal/roster/metrics"
	"roster/internal/roster/models"
	"roster/internal/roster/snapshot"
	"roster/internal/roster/timeline"
	dErrors "roster/pkg/domain-errors"
	"roster/pkg/dates"
	"roster/pkg/platform/sentinel"
)

// Store is the durable person/duty store the service orchestrates. Reads
// return sentinel errors; all timeline mutations go through Commit with a
// single models.ChangeSet that the store applies atomically, running the
// invariant guard inside the same transaction.
type Store interface {
	CreatePerson(ctx context.Context, p *models.Person) error
	RenamePerson(ctx context.Context, id uuid.UUID, name string) error
	FindPersonByName(ctx context.Context, name string) (*models.Person, error)
	ListPeople(ctx context.Context) ([]models.PersonStatus, error)
	ListDutySegments(ctx context.Context, personID uuid.UUID) ([]models.DutySegment, error)
	FindSegment(ctx context.Context, id uuid.UUID) (*models.DutySegment, error)
	GetSnapshot(ctx context.Context, personID uuid.UUID) (*models.StatusSnapshot, error)
	Commit(ctx context.Context, cs models.ChangeSet) error
}

// Service orchestrates person registration and duty timeline maintenance.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InsertDuty appends or backfills one duty for the named person and brings
// the status snapshot up to date. The segment mutations, the new segment,
// and the snapshot upsert commit together or not at all.
//
// A sentinel.ErrConflict from the store means a concurrent insertion won;
// it surfaces as CodeConflict and the caller may retry from a fresh read.
func (s *Service) InsertDuty(ctx context.Context, personName, rank, title string, start time.Time) (uuid.UUID, error) {
	began := time.Now()
	rank = strings.TrimSpace(rank)
	title = strings.TrimSpace(title)
	if rank == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "rank is required")
	}
	if title == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if start.IsZero() {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "start date is required")
	}
	startDay := dates.AtMidnight(start)

	person, err := s.store.FindPersonByName(ctx, personName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return uuid.Nil, dErrors.New(dErrors.CodeNotFound, "person not found: "+personName)
		}
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInternal, "find person")
	}

	existing, err := s.store.ListDutySegments(ctx, person.ID)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInternal, "list duty segments")
	}
	for _, seg := range existing {
		if strings.EqualFold(seg.Title, title) && dates.SameDay(seg.Start, startDay) {
			return uuid.Nil, dErrors.New(dErrors.CodeConflict,
				"duty with the same title and start date already exists")
		}
	}

	res, err := timeline.Reconcile(existing, person.ID, startDay, rank, title)
	if err != nil {
		return uuid.Nil, err
	}

	current, err := s.store.GetSnapshot(ctx, person.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInternal, "load status snapshot")
	}
	snap := snapshot.Apply(current, person.ID, existing, res)

	cs := models.ChangeSet{
		PersonID:         person.ID,
		AddSegments:      []models.DutySegment{res.NewSegment},
		UpdateSegments:   res.Updated,
		Snapshot:         snap,
		BaselineSegments: len(existing),
	}
	if err := s.store.Commit(ctx, cs); err != nil {
		if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			s.metrics.IncrementInvariantViolations()
		}
		return uuid.Nil, s.translateCommitErr(ctx, err, person.Name)
	}

	s.logger.InfoContext(ctx, "duty inserted",
		"person", person.Name,
		"title", title,
		"rank", rank,
		"start", startDay.Format("2006-01-02"),
		"closed_segments", len(res.Updated),
		"new_segment_open", res.NewSegmentIsCurrent(),
		"elapsed_ms", time.Since(began).Milliseconds(),
	)
	if s.metrics != nil {
		s.metrics.IncrementDutiesInserted()
		s.metrics.ObserveInsertDuty(began)
	}
	return res.NewSegment.ID, nil
}

// CreatePerson registers a person. Names are unique case-insensitively;
// the store's unique index is authoritative under concurrent creation.
func (s *Service) CreatePerson(ctx context.Context, name string) (*models.Person, error) {
	person, err := models.NewPerson(name, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePerson(ctx, person); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "that person name already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create person")
	}
	s.logger.InfoContext(ctx, "person created", "person", person.Name, "id", person.ID)
	if s.metrics != nil {
		s.metrics.IncrementPeopleCreated()
	}
	return person, nil
}

// RenamePerson changes a person's display name, keeping uniqueness.
func (s *Service) RenamePerson(ctx context.Context, id uuid.UUID, newName string) error {
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeValidation, "person name is required")
	}
	if err := s.store.RenamePerson(ctx, id, trimmed); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "person not found")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return dErrors.New(dErrors.CodeConflict, "that person name already exists")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "rename person")
		}
	}
	return nil
}

// ListPeople returns every person with their status snapshot when present.
func (s *Service) ListPeople(ctx context.Context) ([]models.PersonStatus, error) {
	people, err := s.store.ListPeople(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list people")
	}
	return people, nil
}

// GetPersonByName returns one person and their snapshot.
func (s *Service) GetPersonByName(ctx context.Context, name string) (*models.PersonStatus, error) {
	person, err := s.store.FindPersonByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found: "+name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find person")
	}
	snap, err := s.store.GetSnapshot(ctx, person.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load status snapshot")
	}
	return &models.PersonStatus{Person: *person, Snapshot: snap}, nil
}

// ListDuties returns the named person's duty history ordered by start date.
func (s *Service) ListDuties(ctx context.Context, personName string) ([]models.DutySegment, error) {
	person, err := s.store.FindPersonByName(ctx, personName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found: "+personName)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find person")
	}
	segments, err := s.store.ListDutySegments(ctx, person.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list duty segments")
	}
	return segments, nil
}

func (s *Service) translateCommitErr(ctx context.Context, err error, personName string) error {
	switch {
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		s.logger.WarnContext(ctx, "commit rejected by invariant guard", "person", personName, "error", err.Error())
		return err
	case errors.Is(err, sentinel.ErrConflict):
		s.logger.WarnContext(ctx, "concurrent write detected, commit aborted", "person", personName)
		return dErrors.Wrap(err, dErrors.CodeConflict, "timeline changed concurrently, retry the insertion")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "duty with the same start date already exists")
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "commit aborted")
	default:
		s.logger.ErrorContext(ctx, "commit failed", "person", personName, "error", err.Error())
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit duty change set")
	}
}
