package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/handlevel/internal/control"
	"github.com/ayusman/handlevel/internal/feature"
	"github.com/ayusman/handlevel/internal/gesture"
	"github.com/ayusman/handlevel/internal/session"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned when a calibration fails validation.
	ErrInvalid = errors.New("invalid calibration")
	// ErrActive is returned when deleting the active calibration.
	ErrActive = errors.New("calibration is active")
)

// Calibration is a named set of classifier and control loop constants.
type Calibration struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TickMs        int       `json:"tick_ms"`
	Step          float64   `json:"step"`
	UpThreshold   float64   `json:"up_threshold"`
	DownThreshold float64   `json:"down_threshold"`
	StabilityRuns int       `json:"stability_runs"`
	GateRuns      int       `json:"gate_runs"`
	Hysteresis    float64   `json:"hysteresis"`
	PalmRadius    float64   `json:"palm_radius"`
	DefaultLevel  float64   `json:"default_level"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultCalibration returns the fast profile without an ID.
func DefaultCalibration() *Calibration {
	g := gesture.DefaultConfig()
	c := control.DefaultConfig()
	return &Calibration{
		Name:          CalibrationFast,
		TickMs:        int(c.Period / time.Millisecond),
		Step:          c.Step,
		UpThreshold:   g.UpThreshold,
		DownThreshold: g.DownThreshold,
		StabilityRuns: g.MaxRun,
		GateRuns:      g.GateRuns,
		Hysteresis:    g.Hysteresis,
		PalmRadius:    g.Feature.PalmRadius,
		DefaultLevel:  c.Default,
	}
}

// Validate checks the ranges the classifier and loop rely on.
func (c *Calibration) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case c.TickMs <= 0:
		return fmt.Errorf("%w: tick_ms must be positive", ErrInvalid)
	case c.Step <= 0 || c.Step > 1:
		return fmt.Errorf("%w: step must be in (0, 1]", ErrInvalid)
	case c.UpThreshold <= 0 || c.DownThreshold <= 0:
		return fmt.Errorf("%w: thresholds must be positive", ErrInvalid)
	case c.StabilityRuns <= 0 || c.GateRuns <= 0 || c.GateRuns > c.StabilityRuns:
		return fmt.Errorf("%w: need 0 < gate_runs <= stability_runs", ErrInvalid)
	case c.Hysteresis <= 0 || c.Hysteresis >= 1:
		return fmt.Errorf("%w: hysteresis must be in (0, 1)", ErrInvalid)
	case c.PalmRadius <= 0:
		return fmt.Errorf("%w: palm_radius must be positive", ErrInvalid)
	case c.DefaultLevel < 0 || c.DefaultLevel > 1:
		return fmt.Errorf("%w: default_level must be in [0, 1]", ErrInvalid)
	}
	return nil
}

// FeatureConfig returns the feature extractor settings of c.
func (c *Calibration) FeatureConfig() feature.Config {
	f := feature.DefaultConfig()
	f.PalmRadius = c.PalmRadius
	return f
}

// GestureConfig returns the classifier settings of c.
func (c *Calibration) GestureConfig() gesture.Config {
	return gesture.Config{
		UpThreshold:   c.UpThreshold,
		DownThreshold: c.DownThreshold,
		Hysteresis:    c.Hysteresis,
		MaxRun:        c.StabilityRuns,
		GateRuns:      c.GateRuns,
		Feature:       c.FeatureConfig(),
	}
}

// ControlConfig returns the control loop settings of c.
func (c *Calibration) ControlConfig() control.Config {
	return control.Config{
		Period:  time.Duration(c.TickMs) * time.Millisecond,
		Step:    c.Step,
		Default: c.DefaultLevel,
	}
}

// SessionConfig returns the combined session settings of c.
func (c *Calibration) SessionConfig() session.Config {
	return session.Config{
		Gesture: c.GestureConfig(),
		Control: c.ControlConfig(),
	}
}

// CalibrationRepository provides CRUD operations for calibrations.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

const calibrationColumns = `id, name, tick_ms, step, up_threshold, down_threshold,
	stability_runs, gate_runs, hysteresis, palm_radius, default_level, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCalibration(row scanner) (*Calibration, error) {
	c := &Calibration{}
	err := row.Scan(&c.ID, &c.Name, &c.TickMs, &c.Step, &c.UpThreshold, &c.DownThreshold,
		&c.StabilityRuns, &c.GateRuns, &c.Hysteresis, &c.PalmRadius, &c.DefaultLevel,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Create validates and inserts a new calibration.
func (r *CalibrationRepository) Create(c *Calibration) error {
	if err := c.Validate(); err != nil {
		return err
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO calibrations (`+calibrationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.TickMs, c.Step, c.UpThreshold, c.DownThreshold,
		c.StabilityRuns, c.GateRuns, c.Hysteresis, c.PalmRadius, c.DefaultLevel,
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByID retrieves a calibration by its ID.
func (r *CalibrationRepository) GetByID(id string) (*Calibration, error) {
	return scanCalibration(r.db.QueryRow(
		`SELECT `+calibrationColumns+` FROM calibrations WHERE id = ?`, id,
	))
}

// GetByName retrieves a calibration by its name.
func (r *CalibrationRepository) GetByName(name string) (*Calibration, error) {
	return scanCalibration(r.db.QueryRow(
		`SELECT `+calibrationColumns+` FROM calibrations WHERE name = ?`, name,
	))
}

// List retrieves all calibrations, oldest first.
func (r *CalibrationRepository) List() ([]*Calibration, error) {
	rows, err := r.db.Query(
		`SELECT ` + calibrationColumns + ` FROM calibrations ORDER BY created_at, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calibrations []*Calibration
	for rows.Next() {
		c, err := scanCalibration(rows)
		if err != nil {
			return nil, err
		}
		calibrations = append(calibrations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return calibrations, nil
}

// Update validates and stores every field of c except CreatedAt.
func (r *CalibrationRepository) Update(c *Calibration) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE calibrations SET name = ?, tick_ms = ?, step = ?, up_threshold = ?,
		 down_threshold = ?, stability_runs = ?, gate_runs = ?, hysteresis = ?,
		 palm_radius = ?, default_level = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.TickMs, c.Step, c.UpThreshold, c.DownThreshold, c.StabilityRuns,
		c.GateRuns, c.Hysteresis, c.PalmRadius, c.DefaultLevel, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}

	return expectOne(result)
}

// Delete removes a calibration by its ID.
func (r *CalibrationRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM calibrations WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return expectOne(result)
}

func expectOne(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
