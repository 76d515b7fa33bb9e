package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// SettingActiveCalibration holds the ID of the calibration in use.
const SettingActiveCalibration = "active_calibration"

// SettingsRepository reads and writes key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value of key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// ActiveCalibration returns the calibration selected in settings.
// A missing or dangling selection falls back to the fast profile.
func (s *Store) ActiveCalibration() (*Calibration, error) {
	id, err := s.Settings().Get(SettingActiveCalibration)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if id != "" {
		c, err := s.Calibrations().GetByID(id)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return c, err
		}
	}
	return s.Calibrations().GetByName(CalibrationFast)
}

// Activate selects the calibration with the given ID.
func (s *Store) Activate(id string) (*Calibration, error) {
	c, err := s.Calibrations().GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.Settings().Set(SettingActiveCalibration, c.ID); err != nil {
		return nil, fmt.Errorf("failed to activate calibration: %w", err)
	}
	return c, nil
}

// ActivateByName selects the calibration with the given name.
func (s *Store) ActivateByName(name string) (*Calibration, error) {
	c, err := s.Calibrations().GetByName(name)
	if err != nil {
		return nil, err
	}
	return s.Activate(c.ID)
}

// DeleteCalibration removes a calibration unless it is the active one.
func (s *Store) DeleteCalibration(id string) error {
	active, err := s.Settings().Get(SettingActiveCalibration)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if active == id {
		return ErrActive
	}
	return s.Calibrations().Delete(id)
}
