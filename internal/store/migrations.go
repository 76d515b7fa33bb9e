package store

import (
	"github.com/google/uuid"
)

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Calibration profiles - one row per named set of tuning constants
		`CREATE TABLE IF NOT EXISTS calibrations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			tick_ms INTEGER NOT NULL CHECK(tick_ms > 0),
			step REAL NOT NULL CHECK(step > 0 AND step <= 1),
			up_threshold REAL NOT NULL DEFAULT 0.02,
			down_threshold REAL NOT NULL DEFAULT 0.01,
			stability_runs INTEGER NOT NULL DEFAULT 3,
			gate_runs INTEGER NOT NULL DEFAULT 2,
			hysteresis REAL NOT NULL DEFAULT 0.3,
			palm_radius REAL NOT NULL DEFAULT 0.16,
			default_level REAL NOT NULL DEFAULT 0.5,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_calibrations_name ON calibrations(name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// Built-in calibration profile names.
const (
	CalibrationFast = "fast"
	CalibrationSlow = "slow"
)

// seed inserts the built-in profiles on an empty database and makes fast active.
func (s *Store) seed() error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM calibrations`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	fast := DefaultCalibration()
	fast.ID = uuid.New().String()

	slow := DefaultCalibration()
	slow.ID = uuid.New().String()
	slow.Name = CalibrationSlow
	slow.TickMs = 100
	slow.Step = 0.01

	repo := s.Calibrations()
	for _, c := range []*Calibration{fast, slow} {
		if err := repo.Create(c); err != nil {
			return err
		}
	}

	return s.Settings().Set(SettingActiveCalibration, fast.ID)
}
