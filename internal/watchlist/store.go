// Package watchlist keeps the user's bounded, de-duplicated list of saved
// movies and writes every change through to a slot repository.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"horrorvault/internal/models"
	"horrorvault/internal/repository"
)

const (
	MaxEntries  = 50
	DefaultSlot = "horror-movie-watchlist"
)

// Store is safe for concurrent use. The in-memory list is authoritative;
// persistence is best-effort and failures are only logged.
type Store struct {
	mu      sync.RWMutex
	entries []models.MovieSummary
	repo    repository.SlotRepository
	slot    string
	logger  *logrus.Logger
}

// Open loads the slot. A missing, unreadable or malformed payload starts an
// empty list.
func Open(ctx context.Context, repo repository.SlotRepository, slot string, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	if slot == "" {
		slot = DefaultSlot
	}

	s := &Store{
		entries: []models.MovieSummary{},
		repo:    repo,
		slot:    slot,
		logger:  logger,
	}
	s.entries = s.load(ctx)
	return s
}

// Add appends m unless it is already present or the list is full.
func (s *Store) Add(ctx context.Context, m models.MovieSummary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(m.ID) >= 0 {
		s.logger.WithField("movie_id", m.ID).Warn("Movie already in watchlist")
		return false
	}
	if len(s.entries) >= MaxEntries {
		s.logger.WithFields(logrus.Fields{
			"movie_id": m.ID,
			"max":      MaxEntries,
		}).Warn("Watchlist is full")
		return false
	}

	if m.GenreIDs == nil {
		m.GenreIDs = []int{}
	}
	s.entries = append(s.entries, m)
	s.persist(ctx)
	return true
}

// Remove drops the entry with id. It reports whether anything was removed.
func (s *Store) Remove(ctx context.Context, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.persist(ctx)
	return true
}

func (s *Store) Contains(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []models.MovieSummary{}
	s.persist(ctx)
}

// Items returns the entries in insertion order.
func (s *Store) Items() []models.MovieSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MovieSummary, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the entry with id.
func (s *Store) Get(id int) (models.MovieSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.MovieSummary{}, false
	}
	return s.entries[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) indexOf(id int) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) load(ctx context.Context) []models.MovieSummary {
	log := s.logger.WithField("slot", s.slot)

	payload, err := s.repo.Load(ctx, s.slot)
	if errors.Is(err, repository.ErrSlotEmpty) {
		return []models.MovieSummary{}
	}
	if err != nil {
		log.WithError(err).Warn("Failed to load watchlist, starting empty")
		return []models.MovieSummary{}
	}

	var loaded []models.MovieSummary
	if err := json.Unmarshal(payload, &loaded); err != nil || loaded == nil {
		log.WithError(err).Warn("Watchlist payload is not a list, starting empty")
		return []models.MovieSummary{}
	}

	entries := make([]models.MovieSummary, 0, min(len(loaded), MaxEntries))
	seen := make(map[int]struct{}, len(loaded))
	for _, m := range loaded {
		if _, dup := seen[m.ID]; dup {
			log.WithField("movie_id", m.ID).Warn("Dropping duplicate watchlist entry")
			continue
		}
		if len(entries) == MaxEntries {
			log.WithField("max", MaxEntries).Warn("Watchlist payload over capacity, truncating")
			break
		}
		seen[m.ID] = struct{}{}
		if m.GenreIDs == nil {
			m.GenreIDs = []int{}
		}
		entries = append(entries, m)
	}

	log.WithField("entries", len(entries)).Info("Watchlist loaded")
	return entries
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context) {
	payload, err := json.Marshal(s.entries)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode watchlist")
		return
	}
	if err := s.repo.Save(ctx, s.slot, payload); err != nil {
		s.logger.WithError(err).WithField("slot", s.slot).Error("Failed to save watchlist")
	}
}
