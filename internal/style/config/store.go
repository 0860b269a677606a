package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Store persists per-session CooldownState ledgers across process restarts,
// generalizing the teacher's badger-backed Storage (which persisted user
// preferences and win/loss stats) to the tagging pipeline's one piece of
// cross-move state.
type Store struct {
	db *badger.DB
}

// OpenStore opens (creating if absent) a badger database at dir.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cooldown store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func cooldownKey(sessionID string) []byte {
	return []byte("cooldown:" + sessionID)
}

// SaveCooldown persists the ledger for a session.
func (s *Store) SaveCooldown(sessionID string, state *CooldownState) error {
	data, err := json.Marshal(state.ToSnapshot())
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cooldownKey(sessionID), data)
	})
}

// LoadCooldown restores the ledger for a session, returning a fresh empty
// ledger if none was ever saved.
func (s *Store) LoadCooldown(sessionID string) (*CooldownState, error) {
	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cooldownKey(sessionID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return NewCooldownState(), nil
	}
	if err != nil {
		return nil, err
	}
	return FromSnapshot(snap), nil
}
