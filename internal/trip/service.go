package trip

import (
	"context"
	"errors"
	"time"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrTripNotFound   = errors.New("trip not found")
	ErrTripNotOpen    = errors.New("trip is not open for joining")
	ErrTripFull       = errors.New("trip is at capacity")
	ErrAlreadyJoined  = errors.New("already a participant of this trip")
	ErrOrganizerLeave = errors.New("organizer cannot leave their own trip")
	ErrStatusRejected = errors.New("cannot satisfy participant status constraint")
)

// joinStatusCandidates is the ordered list the insert negotiation walks. The
// schema shipped with this service accepts "joined", but a deployment running
// an older CHECK constraint may only accept one of the later literals.
var joinStatusCandidates = []string{"joined", "confirmed", "accepted", "active"}

// countedStatuses is the read-side superset: every write candidate plus the
// transitional "pending". Rosters, capacity counts and chat authorization all
// filter with this list, so a participant inserted under a late candidate
// never disappears from them.
var countedStatuses = []string{"joined", "confirmed", "accepted", "active", "pending"}

var validate = validator.New()

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

// CreateTrip inserts the trip and auto-enrolls the organizer as its first
// participant.
func (s *Service) CreateTrip(ctx context.Context, input Trip) (Trip, error) {
	if err := validate.Struct(input); err != nil {
		return Trip{}, err
	}
	input.ID = uuid.NewString()
	if input.Status == "" {
		input.Status = "open"
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, organizer_id, title, description, start_date, end_date, capacity, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, input.ID, input.OrganizerID, input.Title, input.Description, timePtr(input.StartDate), timePtr(input.EndDate), input.Capacity, input.Status)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trip{}, err
	}

	for i := range input.Waypoints {
		wp := &input.Waypoints[i]
		wp.ID = uuid.NewString()
		wp.TripID = input.ID
		wp.Position = i
		_, err := s.db.Exec(ctx, `
			INSERT INTO trip_waypoints (id, trip_id, name, lat, lng, position)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, wp.ID, wp.TripID, wp.Name, wp.Lat, wp.Lng, wp.Position)
		if err != nil {
			return Trip{}, err
		}
	}

	if _, err := s.insertParticipant(ctx, input.ID, input.OrganizerID, "organizer"); err != nil {
		return Trip{}, err
	}
	return input, nil
}

func (s *Service) getTripRow(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, organizer_id, title, description, start_date, end_date, capacity, status, created_at
		FROM trips WHERE id=$1
	`, id)
	var t Trip
	err := row.Scan(&t.ID, &t.OrganizerID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.Capacity, &t.Status, &t.CreatedAt)
	if db.IsNotFound(err) {
		return Trip{}, ErrTripNotFound
	}
	if err != nil {
		return Trip{}, err
	}
	return t, nil
}

func (s *Service) GetTrip(ctx context.Context, id string) (Trip, error) {
	t, err := s.getTripRow(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	wps, err := s.waypoints(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	t.Waypoints = wps
	return t, nil
}

func (s *Service) waypoints(ctx context.Context, tripID string) ([]Waypoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, name, lat, lng, position
		FROM trip_waypoints WHERE trip_id=$1
		ORDER BY position
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wps []Waypoint
	for rows.Next() {
		var wp Waypoint
		if err := rows.Scan(&wp.ID, &wp.TripID, &wp.Name, &wp.Lat, &wp.Lng, &wp.Position); err != nil {
			return nil, err
		}
		wps = append(wps, wp)
	}
	return wps, rows.Err()
}

type DiscoverOptions struct {
	Limit  int
	Offset int
	From   time.Time
}

// Discover lists open trips, soonest departure first.
func (s *Service) Discover(ctx context.Context, opts DiscoverOptions) ([]Trip, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	q := psql.Select("id", "organizer_id", "title", "description", "start_date", "end_date", "capacity", "status", "created_at").
		From("trips").
		Where(sq.Eq{"status": "open"}).
		OrderBy("start_date").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset))
	if !opts.From.IsZero() {
		q = q.Where(sq.GtOrEq{"start_date": opts.From})
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		var t Trip
		if err := rows.Scan(&t.ID, &t.OrganizerID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.Capacity, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func (s *Service) UpdateTrip(ctx context.Context, id, organizerID string, patch Trip) (Trip, error) {
	t, err := s.getTripRow(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if t.OrganizerID != organizerID {
		return Trip{}, ErrTripNotFound
	}
	if patch.Title != "" {
		t.Title = patch.Title
	}
	if patch.Description != "" {
		t.Description = patch.Description
	}
	if !patch.StartDate.IsZero() {
		t.StartDate = patch.StartDate
	}
	if !patch.EndDate.IsZero() {
		t.EndDate = patch.EndDate
	}
	if patch.Capacity != 0 {
		t.Capacity = patch.Capacity
	}
	if patch.Status != "" {
		t.Status = patch.Status
	}

	_, err = s.db.Exec(ctx, `
		UPDATE trips
		SET title=$2, description=$3, start_date=$4, end_date=$5, capacity=$6, status=$7
		WHERE id=$1
	`, t.ID, t.Title, t.Description, timePtr(t.StartDate), timePtr(t.EndDate), t.Capacity, t.Status)
	if err != nil {
		return Trip{}, err
	}
	return t, nil
}

// Join enrolls the caller in an open trip exactly once. Preconditions are
// checked in order: the trip exists, is open, has a seat free and the caller
// is not already on the roster. The insert then negotiates the status literal
// (see insertParticipant).
func (s *Service) Join(ctx context.Context, tripID, userID string) (Participant, error) {
	t, err := s.getTripRow(ctx, tripID)
	if err != nil {
		return Participant{}, err
	}
	if t.Status != "open" {
		return Participant{}, ErrTripNotOpen
	}

	count, err := s.ParticipantCount(ctx, tripID)
	if err != nil {
		return Participant{}, err
	}
	if count >= t.Capacity {
		return Participant{}, ErrTripFull
	}

	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM trip_participants WHERE trip_id=$1 AND user_id=$2)
	`, tripID, userID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return Participant{}, err
	}
	if exists {
		return Participant{}, ErrAlreadyJoined
	}

	return s.insertParticipant(ctx, tripID, userID, "member")
}

// insertParticipant walks the candidate status list until the database
// accepts one. Only a value-validation rejection advances the loop; a
// structural failure (missing trip, duplicate row) will not be fixed by a
// different literal and is surfaced immediately. Exhausting the list means
// the schema accepts none of the known states.
func (s *Service) insertParticipant(ctx context.Context, tripID, userID, role string) (Participant, error) {
	for _, status := range joinStatusCandidates {
		row := s.db.QueryRow(ctx, `
			INSERT INTO trip_participants (trip_id, user_id, role, status)
			VALUES ($1,$2,$3,$4)
			RETURNING joined_at
		`, tripID, userID, role, status)

		p := Participant{TripID: tripID, UserID: userID, Role: role, Status: status}
		err := row.Scan(&p.JoinedAt)
		if err == nil {
			return p, nil
		}
		if db.IsValueRejection(err) {
			continue
		}
		return Participant{}, err
	}
	return Participant{}, ErrStatusRejected
}

// Leave removes the caller's participant row. The organizer stays: a trip
// without its organizer has no owner.
func (s *Service) Leave(ctx context.Context, tripID, userID string) error {
	t, err := s.getTripRow(ctx, tripID)
	if err != nil {
		return err
	}
	if t.OrganizerID == userID {
		return ErrOrganizerLeave
	}
	_, err = s.db.Exec(ctx, `
		DELETE FROM trip_participants WHERE trip_id=$1 AND user_id=$2
	`, tripID, userID)
	return err
}

// ParticipantCount is always recomputed from the roster, filtered by the
// status superset. No stored counter column exists to drift.
func (s *Service) ParticipantCount(ctx context.Context, tripID string) (int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM trip_participants WHERE trip_id=$1 AND status = ANY($2)
	`, tripID, countedStatuses)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Service) Participants(ctx context.Context, tripID string) ([]Participant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT trip_id, user_id, role, status, joined_at
		FROM trip_participants WHERE trip_id=$1 AND status = ANY($2)
		ORDER BY joined_at
	`, tripID, countedStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.TripID, &p.UserID, &p.Role, &p.Status, &p.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, p)
	}
	return members, rows.Err()
}

// IsMember reports whether the user may act as a participant of the trip:
// either on the roster under a counted status or the organizer. Trip chat
// authorization goes through here.
func (s *Service) IsMember(ctx context.Context, tripID, userID string) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM trip_participants WHERE trip_id=$1 AND user_id=$2 AND status = ANY($3))
		    OR EXISTS (SELECT 1 FROM trips WHERE id=$1 AND organizer_id=$2)
	`, tripID, userID, countedStatuses)
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
