package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Savantrexs/MedConfirm/internal/config"
)

// Store provides access to the medication database
type Store struct {
	db *gorm.DB
}

// New opens the SQLite database at the configured path and migrates the schema
func New(cfg *config.Config) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "medconfirm.db")
	}

	sqliteDB, err := sql.Open("sqlite", sqlitePath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqliteDB.SetMaxOpenConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	return NewWithDB(db)
}

// NewWithDB wraps an existing gorm connection. Used by tests with an
// in-memory database.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Medication{}, &IntakeLog{}, &Settings{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schemas: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Medication operations

func (s *Store) CreateMedication(med *Medication) error {
	if med.ID == "" {
		med.ID = uuid.NewString()
	}
	serializeSchedule(med)
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()
	return s.db.Create(med).Error
}

func (s *Store) GetMedication(id string) (*Medication, error) {
	var med Medication
	err := s.db.Where("id = ?", id).First(&med).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	deserializeSchedule(&med)
	return &med, nil
}

func (s *Store) UpdateMedication(med *Medication) error {
	serializeSchedule(med)
	med.UpdatedAt = time.Now()
	return s.db.Save(med).Error
}

// DeleteMedication removes a medication and every intake log attached to it
func (s *Store) DeleteMedication(id string) error {
	if err := s.db.Where("medication_id = ?", id).Delete(&IntakeLog{}).Error; err != nil {
		return err
	}
	return s.db.Where("id = ?", id).Delete(&Medication{}).Error
}

func (s *Store) ListMedications(activeOnly bool) ([]Medication, error) {
	query := s.db.Order("created_at ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var meds []Medication
	if err := query.Find(&meds).Error; err != nil {
		return nil, err
	}
	for i := range meds {
		deserializeSchedule(&meds[i])
	}
	return meds, nil
}

func (s *Store) CountActiveMedications() (int, error) {
	var count int64
	err := s.db.Model(&Medication{}).Where("is_active = ?", true).Count(&count).Error
	return int(count), err
}

// IntakeLog operations

func (s *Store) CreateIntakeLog(log *IntakeLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	log.CreatedAt = time.Now()
	return s.db.Create(log).Error
}

func (s *Store) DeleteIntakeLog(id string) error {
	return s.db.Where("id = ?", id).Delete(&IntakeLog{}).Error
}

// ListIntakeLogs returns logs newest first, optionally filtered by medication
func (s *Store) ListIntakeLogs(medicationID string) ([]IntakeLog, error) {
	query := s.db.Order("taken_at DESC")
	if medicationID != "" {
		query = query.Where("medication_id = ?", medicationID)
	}

	var logs []IntakeLog
	err := query.Find(&logs).Error
	return logs, err
}

// Settings operations

// GetSettings returns the settings row, creating it with defaults on first use
func (s *Store) GetSettings() (*Settings, error) {
	var settings Settings
	err := s.db.First(&settings, 1).Error
	if err == gorm.ErrRecordNotFound {
		settings = Settings{ID: 1, RemindersEnabled: true}
		if createErr := s.db.Create(&settings).Error; createErr != nil {
			return nil, createErr
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) SaveSettings(settings *Settings) error {
	settings.ID = 1
	settings.UpdatedAt = time.Now()
	return s.db.Save(settings).Error
}

// UnlockSlot increments the unlocked medication slot counter and returns
// the new total
func (s *Store) UnlockSlot() (int, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return 0, err
	}
	settings.UnlockedSlots++
	if err := s.SaveSettings(settings); err != nil {
		return 0, err
	}
	return settings.UnlockedSlots, nil
}

// Schedule column serialization

func serializeSchedule(med *Medication) {
	if len(med.TimesPerDay) > 0 {
		timesJSON, _ := json.Marshal(med.TimesPerDay)
		med.TimesJSON = string(timesJSON)
	}
	if len(med.DaysOfWeek) > 0 {
		daysJSON, _ := json.Marshal(med.DaysOfWeek)
		med.DaysJSON = string(daysJSON)
	} else {
		med.DaysJSON = ""
	}
}

func deserializeSchedule(med *Medication) {
	if med.TimesJSON != "" {
		json.Unmarshal([]byte(med.TimesJSON), &med.TimesPerDay)
	}
	if med.DaysJSON != "" {
		json.Unmarshal([]byte(med.DaysJSON), &med.DaysOfWeek)
	}
}
