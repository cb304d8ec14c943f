package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
)

// Preferences are the viewer's display settings.
type Preferences struct {
	ShowCounts bool      `json:"show_counts"`
	ShowPieces bool      `json:"show_pieces"`
	SquareSize int       `json:"square_size"`
	LastUsed   time.Time `json:"last_used"`
}

// DefaultPreferences returns the preferences used before anything is saved.
func DefaultPreferences() *Preferences {
	return &Preferences{
		ShowCounts: true,
		ShowPieces: true,
		SquareSize: 80,
		LastUsed:   time.Now(),
	}
}

// UsageStats counts what the viewer has been used for.
type UsageStats struct {
	Sessions     int `json:"sessions"`
	MovesApplied int `json:"moves_applied"`
	Renders      int `json:"renders"`
}

// Options selects where the database lives.
type Options struct {
	// Dir is the base directory; empty means the platform data directory.
	Dir string
	// InMemory keeps everything in memory and ignores Dir.
	InMemory bool
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens or creates the database described by o.
func Open(o Options) (*Storage, error) {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbDir, err := GetDatabaseDir(o.Dir)
		if err != nil {
			return nil, fmt.Errorf("storage: data dir: %w", err)
		}
		opts = badger.DefaultOptions(dbDir)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true until MarkFirstLaunchComplete is called.
func (s *Storage) IsFirstLaunch() (bool, error) {
	first := true
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		first = false
		return nil
	})
	return first, err
}

// MarkFirstLaunchComplete records that the first launch has happened.
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SavePreferences stores prefs and stamps LastUsed.
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastUsed = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads preferences, returning defaults if none are stored.
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	if err := s.get(keyPreferences, prefs); err != nil {
		return DefaultPreferences(), err
	}
	if prefs.SquareSize <= 0 {
		prefs.SquareSize = DefaultPreferences().SquareSize
	}
	return prefs, nil
}

// LoadStats loads usage statistics, returning zeros if none are stored.
func (s *Storage) LoadStats() (*UsageStats, error) {
	stats := &UsageStats{}
	err := s.get(keyStats, stats)
	return stats, err
}

// RecordUsage adds to the stored usage statistics in one transaction.
func (s *Storage) RecordUsage(sessions, moves, renders int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		stats := &UsageStats{}
		item, err := txn.Get([]byte(keyStats))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, stats)
			}); err != nil {
				return err
			}
		}

		stats.Sessions += sessions
		stats.MovesApplied += moves
		stats.Renders += renders

		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), data)
	})
}

func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes the value at key into v, leaving v untouched if key is absent.
func (s *Storage) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}
