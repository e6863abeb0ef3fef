package store

import (
	"errors"
	"fmt"
	"strconv"

	"alpha-roller-go/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Well-known settings keys. Values are stored as opaque strings; the
// typed accessors below own the encoding.
const (
	KeyAutoTradingEnabled = "autoTradingEnabled"
	KeyDryRunEnabled      = "dryRunEnabled"
	KeyUsdtAmount         = "usdtAmount"
	KeyTargetUsdtAmount   = "targetUsdtAmount"
	KeySidePanelEnabled   = "sidePanelEnabled"
	KeySidePanelWidth     = "sidePanelWidth"
	KeyDetectedSymbols    = "detectedSymbols"
	KeyCurrentAlpha       = "currentAlpha"
)

// Defaults applied when a key has never been written.
const (
	DefaultUsdtAmount       = 100.0
	DefaultTargetUsdtAmount = 1000.0
	DefaultSidePanelWidth   = 300.0
)

// maxOperationLogs caps the operation log; oldest entries are trimmed.
const maxOperationLogs = 100

// Store is the persistent settings and operation-log store.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an opened database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the raw value for key. The second result reports whether
// the key was present.
func (s *Store) Get(key string) (string, bool, error) {
	var setting models.Setting
	err := s.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("could not read setting %q: %w", key, err)
	}
	return setting.Value, true, nil
}

// Set writes the raw value for key, creating the row if needed.
func (s *Store) Set(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("could not write setting %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	if err := s.db.Unscoped().Where("key = ?", key).Delete(&models.Setting{}).Error; err != nil {
		return fmt.Errorf("could not remove setting %q: %w", key, err)
	}
	return nil
}

func (s *Store) getBool(key string, fallback bool) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return fallback, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, nil // unreadable value falls back to the default
	}
	return v, nil
}

func (s *Store) getFloat(key string, fallback float64) (float64, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return fallback, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return fallback, nil
	}
	return v, nil
}

// DryRunEnabled reports the dry-run flag; defaults to true so a fresh
// install never touches the live page.
func (s *Store) DryRunEnabled() (bool, error) {
	return s.getBool(KeyDryRunEnabled, true)
}

func (s *Store) SetDryRunEnabled(v bool) error {
	return s.Set(KeyDryRunEnabled, strconv.FormatBool(v))
}

// AutoTradingEnabled reports whether page detection should auto-trigger
// a round trip; defaults to false.
func (s *Store) AutoTradingEnabled() (bool, error) {
	return s.getBool(KeyAutoTradingEnabled, false)
}

func (s *Store) SetAutoTradingEnabled(v bool) error {
	return s.Set(KeyAutoTradingEnabled, strconv.FormatBool(v))
}

// UsdtAmount returns the per-round amount.
func (s *Store) UsdtAmount() (float64, error) {
	return s.getFloat(KeyUsdtAmount, DefaultUsdtAmount)
}

func (s *Store) SetUsdtAmount(v float64) error {
	return s.Set(KeyUsdtAmount, strconv.FormatFloat(v, 'f', -1, 64))
}

// TargetUsdtAmount returns the campaign cumulative target.
func (s *Store) TargetUsdtAmount() (float64, error) {
	return s.getFloat(KeyTargetUsdtAmount, DefaultTargetUsdtAmount)
}

func (s *Store) SetTargetUsdtAmount(v float64) error {
	return s.Set(KeyTargetUsdtAmount, strconv.FormatFloat(v, 'f', -1, 64))
}

// SidePanelEnabled and SidePanelWidth are display-only settings kept for
// the UI collaborators; the core never reads them.
func (s *Store) SidePanelEnabled() (bool, error) {
	return s.getBool(KeySidePanelEnabled, true)
}

func (s *Store) SidePanelWidth() (float64, error) {
	return s.getFloat(KeySidePanelWidth, DefaultSidePanelWidth)
}

// AppendOperationLog records an entry and trims the log to its cap.
func (s *Store) AppendOperationLog(entry models.OperationLog) error {
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("could not append operation log: %w", err)
	}

	var count int64
	if err := s.db.Model(&models.OperationLog{}).Count(&count).Error; err != nil {
		return fmt.Errorf("could not count operation logs: %w", err)
	}
	if count > maxOperationLogs {
		// Trim the oldest rows beyond the cap.
		err := s.db.Unscoped().
			Where("id NOT IN (?)", s.db.Model(&models.OperationLog{}).
				Select("id").Order("id desc").Limit(maxOperationLogs)).
			Delete(&models.OperationLog{}).Error
		if err != nil {
			return fmt.Errorf("could not trim operation logs: %w", err)
		}
	}
	return nil
}

// RecentOperationLogs returns up to the cap of entries, newest first.
func (s *Store) RecentOperationLogs() ([]models.OperationLog, error) {
	var logs []models.OperationLog
	err := s.db.Order("id desc").Limit(maxOperationLogs).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("could not read operation logs: %w", err)
	}
	return logs, nil
}

// ClearOperationLogs drops all entries.
func (s *Store) ClearOperationLogs() error {
	if err := s.db.Unscoped().Where("1 = 1").Delete(&models.OperationLog{}).Error; err != nil {
		return fmt.Errorf("could not clear operation logs: %w", err)
	}
	return nil
}
