// Package archive keeps computed runs in a SQLite database so they can be
// listed and recalled later.
package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/kovidgoyal/npspec"
	"github.com/kovidgoyal/npspec/colorimetry"
	"github.com/kovidgoyal/npspec/config"
)

var _ = fmt.Print

// ErrNotFound is returned by Get and Delete for an unknown run.
var ErrNotFound = errors.New("archive: no such run")

// Run is one computation: what was asked for and what came out. Result is
// nil for runs that failed.
type Run struct {
	ID       uuid.UUID
	Created  time.Time
	Source   string
	Particle config.Particle
	Spectrum config.Spectrum
	Status   npspec.ErrorCode
	Error    string
	RGB      colorimetry.RGB
	HSV      colorimetry.HSV
	Result   *npspec.Spectrum
}

// Summary is a row of List.
type Summary struct {
	ID      uuid.UUID
	Created time.Time
	Source  string
	Status  npspec.ErrorCode
	Color   string
}

type row struct {
	ID       string  `db:"id"`
	Created  int64   `db:"created"`
	Source   string  `db:"source"`
	Particle string  `db:"particle_json"`
	Spectrum string  `db:"spectrum_json"`
	Status   int     `db:"status"`
	Error    string  `db:"error"`
	Color    string  `db:"color"`
	R        float64 `db:"r"`
	G        float64 `db:"g"`
	B        float64 `db:"b"`
	H        float64 `db:"h"`
	S        float64 `db:"s"`
	V        float64 `db:"v"`
	Result   string  `db:"result_json"`
}

// Store wraps a SQLite connection holding runs.
type Store struct {
	conn *sqlx.DB
	log  logrus.FieldLogger
}

// Open opens or creates the archive at path. ":memory:" gives a private
// in-memory archive.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// one connection so that pragmas and in-memory databases are shared
	conn.SetMaxOpenConns(1)
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	s := &Store{conn: conn, log: log.WithField("path", path)}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created INTEGER NOT NULL,
		source TEXT NOT NULL,
		particle_json TEXT NOT NULL,
		spectrum_json TEXT NOT NULL,
		status INTEGER NOT NULL,
		error TEXT NOT NULL,
		color TEXT NOT NULL,
		r REAL NOT NULL,
		g REAL NOT NULL,
		b REAL NOT NULL,
		h REAL NOT NULL,
		s REAL NOT NULL,
		v REAL NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Save writes run to the archive, assigning it an ID and creation time if
// it has none.
func (s *Store) Save(run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Created.IsZero() {
		run.Created = time.Now()
	}
	particle, err := json.Marshal(run.Particle)
	if err != nil {
		return err
	}
	spectrum, err := json.Marshal(run.Spectrum)
	if err != nil {
		return err
	}
	result := []byte{}
	if run.Result != nil {
		if result, err = json.Marshal(run.Result); err != nil {
			return err
		}
	}
	r := row{
		ID: run.ID.String(), Created: run.Created.UnixNano(), Source: run.Source,
		Particle: string(particle), Spectrum: string(spectrum),
		Status: int(run.Status), Error: run.Error, Color: run.RGB.AsSharp(),
		R: run.RGB.R, G: run.RGB.G, B: run.RGB.B,
		H: run.HSV.H, S: run.HSV.S, V: run.HSV.V,
		Result: string(result),
	}
	_, err = s.conn.NamedExec(`INSERT OR REPLACE INTO runs
		(id, created, source, particle_json, spectrum_json, status, error,
		 color, r, g, b, h, s, v, result_json)
		VALUES (:id, :created, :source, :particle_json, :spectrum_json, :status, :error,
		 :color, :r, :g, :b, :h, :s, :v, :result_json)`, &r)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	s.log.WithFields(logrus.Fields{"run": run.ID, "status": run.Status}).Debug("archived run")
	return nil
}

// Get returns the run with the given ID.
func (s *Store) Get(id uuid.UUID) (*Run, error) {
	var r row
	err := s.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	ans := &Run{
		ID: id, Created: time.Unix(0, r.Created), Source: r.Source,
		Status: npspec.ErrorCode(r.Status), Error: r.Error,
		RGB: colorimetry.RGB{R: r.R, G: r.G, B: r.B},
		HSV: colorimetry.HSV{H: r.H, S: r.S, V: r.V},
	}
	if err = json.Unmarshal([]byte(r.Particle), &ans.Particle); err != nil {
		return nil, fmt.Errorf("run %s: particle: %w", id, err)
	}
	if err = json.Unmarshal([]byte(r.Spectrum), &ans.Spectrum); err != nil {
		return nil, fmt.Errorf("run %s: spectrum settings: %w", id, err)
	}
	if r.Result != "" {
		ans.Result = &npspec.Spectrum{}
		if err = json.Unmarshal([]byte(r.Result), ans.Result); err != nil {
			return nil, fmt.Errorf("run %s: result: %w", id, err)
		}
	}
	return ans, nil
}

// List returns the most recent runs, newest first. A limit <= 0 lists all
// runs.
func (s *Store) List(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []row
	err := s.conn.Select(&rows,
		"SELECT id, created, source, status, color FROM runs ORDER BY created DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	ans := make([]Summary, len(rows))
	for i, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, err
		}
		ans[i] = Summary{ID: id, Created: time.Unix(0, r.Created), Source: r.Source, Status: npspec.ErrorCode(r.Status), Color: r.Color}
	}
	return ans, nil
}

// Delete removes the run with the given ID.
func (s *Store) Delete(id uuid.UUID) error {
	res, err := s.conn.Exec("DELETE FROM runs WHERE id = ?", id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
