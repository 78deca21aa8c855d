// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for BadgerDB storage
const (
	modelKeyPrefix  = "model:"
	latestKeyPrefix = "latest:"
)

// BadgerStore keeps artifacts in a BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

var _ Store = (*BadgerStore)(nil)

// OpenBadgerStore opens a BadgerDB at dir and wraps it. Close releases the database.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// NewBadgerStore wraps an already open database. Close leaves it open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func modelKey(name string, version int) []byte {
	return []byte(modelKeyPrefix + name + ":v" + strconv.Itoa(version))
}

func latestKey(name string) []byte {
	return []byte(latestKeyPrefix + name)
}

func readLatest(txn *badger.Txn, name string) (int, error) {
	item, err := txn.Get(latestKey(name))
	if err != nil {
		return 0, err
	}
	var version int
	err = item.Value(func(val []byte) error {
		v, err := strconv.Atoi(string(val))
		version = v
		return err
	})
	return version, err
}

// Save implements Store. The version bump and the payload commit in one
// transaction.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *BadgerStore) Save(ctx context.Context, name string, model any, meta ModelMetadata) (ModelMetadata, error) {
	var saved ModelMetadata
	err := s.db.Update(func(txn *badger.Txn) error {
		latest, err := readLatest(txn, name)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("read latest version: %w", err)
		}

		meta.Name = name
		meta.Version = latest + 1

		env, err := encode(model, meta)
		if err != nil {
			return err
		}
		data, err := marshalEnvelope(env)
		if err != nil {
			return err
		}

		if err := txn.Set(modelKey(name, meta.Version), data); err != nil {
			return fmt.Errorf("set model: %w", err)
		}
		if err := txn.Set(latestKey(name), []byte(strconv.Itoa(meta.Version))); err != nil {
			return fmt.Errorf("set latest version: %w", err)
		}
		saved = env.Metadata
		return nil
	})
	if err != nil {
		return ModelMetadata{}, err
	}
	return saved, nil
}

// Load implements Store.
func (s *BadgerStore) Load(ctx context.Context, name string, version int, target any) (*ModelMetadata, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		if version == 0 {
			latest, err := readLatest(txn, name)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrModelNotFound, name)
			}
			if err != nil {
				return fmt.Errorf("read latest version: %w", err)
			}
			version = latest
		}

		item, err := txn.Get(modelKey(name, version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s v%d", ErrModelNotFound, name, version)
		}
		if err != nil {
			return fmt.Errorf("get model: %w", err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	env, err := unmarshalEnvelope(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return decode(env, target)
}

// LatestVersion implements Store.
func (s *BadgerStore) LatestVersion(name string) (int, bool) {
	var version int
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := readLatest(txn, name)
		version = v
		return err
	})
	if err != nil {
		return 0, false
	}
	return version, true
}

// List implements Store.
func (s *BadgerStore) List(ctx context.Context) ([]ModelMetadata, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(latestKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), latestKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	models := make([]ModelMetadata, 0, len(names))
	for _, name := range names {
		var data []byte
		err := s.db.View(func(txn *badger.Txn) error {
			latest, err := readLatest(txn, name)
			if err != nil {
				return err
			}
			item, err := txn.Get(modelKey(name, latest))
			if err != nil {
				return err
			}
			data, err = item.ValueCopy(nil)
			return err
		})
		if err != nil {
			continue
		}
		env, err := unmarshalEnvelope(bytes.NewReader(data))
		if err != nil {
			continue
		}
		models = append(models, env.Metadata)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// Prune implements Store.
func (s *BadgerStore) Prune(ctx context.Context, name string, keep int) error {
	if keep < 1 {
		keep = 1
	}

	var versions []int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(modelKeyPrefix + name + ":v")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			v, err := strconv.Atoi(strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
			if err != nil {
				continue
			}
			versions = append(versions, v)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	if len(versions) <= keep {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, v := range versions[keep:] {
			if err := txn.Delete(modelKey(name, v)); err != nil {
				return fmt.Errorf("delete model %s v%d: %w", name, v, err)
			}
		}
		return nil
	})
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
