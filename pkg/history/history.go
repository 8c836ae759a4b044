package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/amirasaad/fxconvert/pkg/storage"
	"github.com/google/uuid"
)

// DefaultLimit is the maximum number of retained entries.
const DefaultLimit = 50

// ErrInvalidEntry is returned by Append for entries that cannot be encoded.
var ErrInvalidEntry = errors.New("invalid history entry")

// Entry records one successful conversion.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	FromCode   string    `json:"from_code"`
	ToCode     string    `json:"to_code"`
	FromAmount float64   `json:"from_amount"`
	ToAmount   float64   `json:"to_amount"`
	Rate       float64   `json:"rate"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEntry creates an entry with a fresh ID.
func NewEntry(from, to string, fromAmount, toAmount, rate float64, at time.Time) Entry {
	return Entry{
		ID:         uuid.New(),
		FromCode:   from,
		ToCode:     to,
		FromAmount: fromAmount,
		ToAmount:   toAmount,
		Rate:       rate,
		Timestamp:  at,
	}
}

// Store is a bounded, append-only conversion log. The oldest entry is
// evicted first once the limit is reached, and the full log is written to
// the KV store after every mutation.
type Store struct {
	mu      sync.RWMutex
	saveMu  sync.Mutex // orders writes to kv
	kv      storage.KV
	key     string
	limit   int
	entries []Entry // oldest first
	logger  *slog.Logger
}

// New creates a history store persisted under storage.KeyConversionHistory.
// A non-positive limit selects DefaultLimit.
func New(kv storage.KV, limit int, logger *slog.Logger) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kv,
		key:    storage.KeyConversionHistory,
		limit:  limit,
		logger: logger.With(slog.String("component", "history")),
	}
}

// Load replaces the in-memory log with the persisted one and returns it,
// most recent first. Unreadable data is logged and treated as an empty log.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var entries []Entry
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			s.logger.Warn("Discarding unreadable history", "error", err)
			entries = nil
		}
	}
	if len(entries) > s.limit {
		entries = entries[len(entries)-s.limit:]
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("History loaded", "count", len(entries))
	return s.Entries(), nil
}

// Append adds entry, evicts the oldest entries beyond the limit and saves.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	for _, v := range []float64{entry.FromAmount, entry.ToAmount, entry.Rate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite amount or rate", ErrInvalidEntry)
		}
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if over := len(s.entries) - s.limit; over > 0 {
		s.entries = append([]Entry(nil), s.entries[over:]...)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	return s.save(ctx, snapshot)
}

// Clear empties the log and saves the empty state.
func (s *Store) Clear(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	return s.save(ctx, []Entry{})
}

// Entries returns the log, most recent first.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[len(s.entries)-1-i] = e
	}
	return out
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Limit returns the maximum number of retained entries.
func (s *Store) Limit() int {
	return s.limit
}

func (s *Store) snapshotLocked() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) save(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}
