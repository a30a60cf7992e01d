// Package history keeps a log of latitude observations in SQLite.
//
// Repeated observations from the same site can be combined into a single
// inverse-variance weighted estimate with Summary.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"

	"github.com/uygaratabay1015-boop/kutupp/internal/detection"
	"github.com/uygaratabay1015-boop/kutupp/internal/latitude"
)

// ErrNotFound is returned when no observation has the requested ID.
var ErrNotFound = errors.New("observation not found")

// minErrorMargin floors the margins used as weights in Summary.
const minErrorMargin = 0.01

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	id           TEXT PRIMARY KEY,
	taken_at     INTEGER NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	latitude     REAL NOT NULL,
	lower_bound  REAL NOT NULL,
	upper_bound  REAL NOT NULL,
	error_margin REAL NOT NULL,
	altitude     REAL NOT NULL,
	star_x       REAL NOT NULL,
	star_y       REAL NOT NULL,
	brightness   REAL NOT NULL,
	score        REAL NOT NULL,
	image_width  INTEGER NOT NULL,
	image_height INTEGER NOT NULL,
	vertical_fov REAL NOT NULL,
	azimuth      REAL,
	note         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS observations_taken_at ON observations (taken_at);
`

const columns = `id, taken_at, source, latitude, lower_bound, upper_bound, error_margin,
	altitude, star_x, star_y, brightness, score, image_width, image_height,
	vertical_fov, azimuth, note`

// Observation is one recorded latitude estimate.
type Observation struct {
	ID          string          `json:"id"`
	TakenAt     time.Time       `json:"taken_at"`
	Source      string          `json:"source,omitempty"`
	Result      latitude.Result `json:"result"`
	Polaris     detection.Star  `json:"polaris"`
	Score       float64         `json:"score"`
	ImageWidth  int             `json:"image_width"`
	ImageHeight int             `json:"image_height"`
	VerticalFOV float64         `json:"vertical_fov"`
	Azimuth     *float64        `json:"azimuth,omitempty"`
	Note        string          `json:"note,omitempty"`
}

// Summary combines every stored observation.
type Summary struct {
	Count int `json:"count"`

	// MeanLatitude is the plain average.
	MeanLatitude float64 `json:"mean_latitude"`

	// WeightedLatitude weights each observation by 1/errorMargin².
	WeightedLatitude float64 `json:"weighted_latitude"`

	// CombinedError is the margin of the weighted estimate.
	CombinedError float64 `json:"combined_error"`

	MinLatitude float64 `json:"min_latitude"`
	MaxLatitude float64 `json:"max_latitude"`
}

// Store is an observation log backed by a SQLite file. It is safe for
// concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history database path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores obs. A missing ID gets a new UUID and a zero TakenAt becomes
// the current time. The stored observation is returned.
func (s *Store) Record(ctx context.Context, obs Observation) (Observation, error) {
	if obs.ID == "" {
		obs.ID = uuid.NewString()
	}
	if obs.TakenAt.IsZero() {
		obs.TakenAt = time.Now()
	}
	obs.TakenAt = obs.TakenAt.UTC()

	var azimuth sql.NullFloat64
	if obs.Azimuth != nil {
		azimuth = sql.NullFloat64{Float64: *obs.Azimuth, Valid: true}
	}

	r := obs.Result
	_, err := s.db.ExecContext(ctx, `INSERT INTO observations (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.ID, obs.TakenAt.UnixNano(), obs.Source,
		r.Latitude, r.LowerBound, r.UpperBound, r.ErrorMargin, r.Altitude,
		obs.Polaris.X, obs.Polaris.Y, obs.Polaris.Brightness, obs.Score,
		obs.ImageWidth, obs.ImageHeight, obs.VerticalFOV, azimuth, obs.Note)
	if err != nil {
		return Observation{}, fmt.Errorf("recording observation: %w", err)
	}
	return obs, nil
}

// Get returns the observation with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Observation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM observations WHERE id = ?`, id)
	obs, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Observation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Observation{}, fmt.Errorf("reading observation: %w", err)
	}
	return obs, nil
}

// List returns up to limit observations, newest first. A non-positive limit
// returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Observation, error) {
	q := `SELECT ` + columns + ` FROM observations ORDER BY taken_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing observations: %w", err)
	}
	defer rows.Close()

	out := make([]Observation, 0)
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("reading observation: %w", err)
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing observations: %w", err)
	}
	return out, nil
}

// Delete removes one observation.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting observation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting observation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Summary combines all stored observations. An empty log gives a zero
// Summary.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	all, err := s.List(ctx, 0)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(all), nil
}

// Summarize combines observations. Margins below 0.01° are treated as 0.01°.
func Summarize(obs []Observation) Summary {
	if len(obs) == 0 {
		return Summary{}
	}

	lats := make([]float64, len(obs))
	weights := make([]float64, len(obs))
	var sumW float64
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	for i, o := range obs {
		lats[i] = o.Result.Latitude
		m := math.Max(o.Result.ErrorMargin, minErrorMargin)
		weights[i] = 1 / (m * m)
		sumW += weights[i]
		minLat = math.Min(minLat, lats[i])
		maxLat = math.Max(maxLat, lats[i])
	}

	return Summary{
		Count:            len(obs),
		MeanLatitude:     latitude.Round2(stat.Mean(lats, nil)),
		WeightedLatitude: latitude.Round2(stat.Mean(lats, weights)),
		CombinedError:    latitude.Round2(1 / math.Sqrt(sumW)),
		MinLatitude:      minLat,
		MaxLatitude:      maxLat,
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanObservation(sc scanner) (Observation, error) {
	var (
		obs     Observation
		takenAt int64
		azimuth sql.NullFloat64
	)
	err := sc.Scan(&obs.ID, &takenAt, &obs.Source,
		&obs.Result.Latitude, &obs.Result.LowerBound, &obs.Result.UpperBound,
		&obs.Result.ErrorMargin, &obs.Result.Altitude,
		&obs.Polaris.X, &obs.Polaris.Y, &obs.Polaris.Brightness, &obs.Score,
		&obs.ImageWidth, &obs.ImageHeight, &obs.VerticalFOV, &azimuth, &obs.Note)
	if err != nil {
		return Observation{}, err
	}
	obs.TakenAt = time.Unix(0, takenAt).UTC()
	if azimuth.Valid {
		a := azimuth.Float64
		obs.Azimuth = &a
	}
	return obs, nil
}
