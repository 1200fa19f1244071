// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// TokenStore persists provider bearer tokens across restarts.
type TokenStore interface {
	Save(providerID, token string, expiresAt time.Time) error
	// Load returns the persisted token, or zero values when none is stored.
	Load(providerID string) (token string, expiresAt time.Time, err error)
	Clear(providerID string) error
}

type persistedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BadgerTokenStore implements TokenStore on a BadgerDB instance.
type BadgerTokenStore struct {
	db *badger.DB
}

// NewBadgerTokenStore opens (or creates) a Badger database at path.
func NewBadgerTokenStore(path string) (*BadgerTokenStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open token cache at %s: %w", path, err)
	}
	return &BadgerTokenStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BadgerTokenStore) Close() error {
	return s.db.Close()
}

func tokenKey(providerID string) []byte {
	return []byte("token:" + providerID)
}

// Save persists the token for a provider.
func (s *BadgerTokenStore) Save(providerID, token string, expiresAt time.Time) error {
	data, err := json.Marshal(persistedToken{Token: token, ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tokenKey(providerID), data)
	})
}

// Load retrieves the persisted token. Missing keys are not an error.
func (s *BadgerTokenStore) Load(providerID string) (string, time.Time, error) {
	var stored persistedToken
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey(providerID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load token for %s: %w", providerID, err)
	}
	return stored.Token, stored.ExpiresAt, nil
}

// Clear removes the persisted token for a provider.
func (s *BadgerTokenStore) Clear(providerID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(tokenKey(providerID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
