package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
)

// Store is the on-disk document of the JSON backend.
type Store struct {
	Version      int             `json:"version"`
	Settings     models.Settings `json:"settings"`
	Habits       []models.Habit  `json:"habits"`
	Achievements []string        `json:"achievements"`
}

// JSONStore keeps the whole collection in a single JSON file.
type JSONStore struct {
	path  string
	store *Store
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.store = &Store{
		Version:      1,
		Settings:     models.DefaultSettings(),
		Habits:       []models.Habit{},
		Achievements: []string{},
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.store = &Store{}
	if err := json.Unmarshal(data, s.store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	models.ApplyDefaultSettings(&s.store.Settings)
	for i := range s.store.Habits {
		if s.store.Habits[i].Log == nil {
			s.store.Habits[i].Log = models.HabitLog{}
		}
	}

	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	// Replace the file atomically via rename.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}

func (s *JSONStore) GetSettings() (models.Settings, error) {
	if s.store == nil {
		return models.Settings{}, errors.ErrStorageNotLoaded
	}
	return s.store.Settings, nil
}

func (s *JSONStore) SaveSettings(settings models.Settings) error {
	if s.store == nil {
		return errors.ErrStorageNotLoaded
	}
	s.store.Settings = settings
	return s.save()
}

func (s *JSONStore) LoadHabits() ([]models.Habit, error) {
	if s.store == nil {
		return nil, errors.ErrStorageNotLoaded
	}
	return CloneHabits(s.store.Habits), nil
}

func (s *JSONStore) SaveHabits(habits []models.Habit) error {
	if s.store == nil {
		return errors.ErrStorageNotLoaded
	}
	if habits == nil {
		habits = []models.Habit{}
	}
	s.store.Habits = CloneHabits(habits)
	return s.save()
}

func (s *JSONStore) LoadAchievements() ([]string, error) {
	if s.store == nil {
		return nil, errors.ErrStorageNotLoaded
	}
	return append([]string(nil), s.store.Achievements...), nil
}

func (s *JSONStore) SaveAchievements(ids []string) error {
	if s.store == nil {
		return errors.ErrStorageNotLoaded
	}
	s.store.Achievements = append([]string{}, ids...)
	return s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
