package storage

import (
	"sync"

	"github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
)

// MemoryStore is an in-process Provider for tests and ephemeral sessions.
// Every read and write copies, so callers observe snapshot semantics.
type MemoryStore struct {
	mu           sync.Mutex
	loaded       bool
	settings     models.Settings
	habits       []models.Habit
	achievements []string

	// SaveErr, when set, is returned by SaveHabits and SaveAchievements.
	SaveErr error
	// Saves counts successful SaveHabits calls.
	Saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.settings = models.DefaultSettings()
	s.habits = []models.Habit{}
	s.achievements = []string{}
	return nil
}

func (s *MemoryStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.loaded = true
		s.settings = models.DefaultSettings()
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) GetSettings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return models.Settings{}, errors.ErrStorageNotLoaded
	}
	return s.settings, nil
}

func (s *MemoryStore) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return errors.ErrStorageNotLoaded
	}
	s.settings = settings
	return nil
}

func (s *MemoryStore) LoadHabits() ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, errors.ErrStorageNotLoaded
	}
	return CloneHabits(s.habits), nil
}

func (s *MemoryStore) SaveHabits(habits []models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return errors.ErrStorageNotLoaded
	}
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.habits = CloneHabits(habits)
	s.Saves++
	return nil
}

func (s *MemoryStore) LoadAchievements() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, errors.ErrStorageNotLoaded
	}
	return append([]string(nil), s.achievements...), nil
}

func (s *MemoryStore) SaveAchievements(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return errors.ErrStorageNotLoaded
	}
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.achievements = append([]string{}, ids...)
	return nil
}

func (s *MemoryStore) GetConfigPath() string {
	return ":memory:"
}
