package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/metrics"
	"go.uber.org/zap"
)

// MedicinesKey holds the whole medicine collection as a single JSON array
const MedicinesKey = "@medicines"

// Repository gives read-modify-write access to the medicine collection.
// Every mutation rewrites the whole collection; one mutex serializes them so
// concurrent callers in this process cannot lose each other's updates.
type Repository struct {
	kv      KV
	logger  *zap.Logger
	metrics *metrics.Metrics
	mu      sync.Mutex
}

// New creates a repository over kv
func New(kv KV, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		kv:      kv,
		logger:  logger,
		metrics: metrics.Default(),
	}
}

// KV returns the underlying storage port
func (r *Repository) KV() KV {
	return r.kv
}

// Close closes the underlying storage
func (r *Repository) Close() error {
	return r.kv.Close()
}

func (r *Repository) load(ctx context.Context) ([]medicine.Medicine, error) {
	data, err := r.kv.Get(ctx, MedicinesKey)
	if errors.Is(err, ErrKeyNotFound) {
		r.metrics.RecordStoreOp("read", nil)
		return []medicine.Medicine{}, nil
	}
	r.metrics.RecordStoreOp("read", err)
	if err != nil {
		return nil, apperrors.From(apperrors.ErrStoreRead, err)
	}

	var meds []medicine.Medicine
	if err := json.Unmarshal(data, &meds); err != nil {
		return nil, apperrors.From(apperrors.ErrStoreCorrupt, err)
	}
	if meds == nil {
		meds = []medicine.Medicine{}
	}
	return meds, nil
}

func (r *Repository) save(ctx context.Context, meds []medicine.Medicine) error {
	data, err := json.Marshal(meds)
	if err != nil {
		return apperrors.From(apperrors.ErrStoreWrite, err)
	}
	err = r.kv.Set(ctx, MedicinesKey, data)
	r.metrics.RecordStoreOp("write", err)
	if err != nil {
		r.logger.Error("Failed to write medicines", zap.Error(err))
		return apperrors.From(apperrors.ErrStoreWrite, err)
	}
	return nil
}

// GetAll returns every medicine in insertion order
func (r *Repository) GetAll(ctx context.Context) ([]medicine.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Get returns one medicine by id
func (r *Repository) Get(ctx context.Context, id string) (medicine.Medicine, bool, error) {
	meds, err := r.GetAll(ctx)
	if err != nil {
		return medicine.Medicine{}, false, err
	}
	for _, m := range meds {
		if m.ID == id {
			return m, true, nil
		}
	}
	return medicine.Medicine{}, false, nil
}

// Upsert replaces the medicine with the same id in place, or appends it
func (r *Repository) Upsert(ctx context.Context, m medicine.Medicine) error {
	_, _, err := r.Put(ctx, m, nil)
	return err
}

// DeleteByID removes a medicine and its intake history. Missing ids are not an error.
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meds, err := r.load(ctx)
	if err != nil {
		return err
	}

	filtered := make([]medicine.Medicine, 0, len(meds))
	for _, m := range meds {
		if m.ID != id {
			filtered = append(filtered, m)
		}
	}
	return r.save(ctx, filtered)
}

// Update applies fn to the medicine with id and writes the collection back
// while holding the collection lock. It reports false without writing when
// the id does not exist. An error from fn aborts the write.
func (r *Repository) Update(ctx context.Context, id string, fn func(*medicine.Medicine) error) (medicine.Medicine, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meds, err := r.load(ctx)
	if err != nil {
		return medicine.Medicine{}, false, err
	}

	for i := range meds {
		if meds[i].ID != id {
			continue
		}
		if err := fn(&meds[i]); err != nil {
			return medicine.Medicine{}, true, err
		}
		if err := r.save(ctx, meds); err != nil {
			return medicine.Medicine{}, true, err
		}
		return meds[i], true, nil
	}
	return medicine.Medicine{}, false, nil
}

// Put writes m while holding the collection lock. prepare sees the stored
// record with the same id (nil when there is none) and may adjust m before
// it is written; an error from prepare aborts the write. Put returns the
// record as written and the one it replaced.
func (r *Repository) Put(ctx context.Context, m medicine.Medicine, prepare func(existing, m *medicine.Medicine) error) (medicine.Medicine, *medicine.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meds, err := r.load(ctx)
	if err != nil {
		return medicine.Medicine{}, nil, err
	}

	idx := -1
	var prev *medicine.Medicine
	if m.ID != "" {
		for i := range meds {
			if meds[i].ID == m.ID {
				idx = i
				existing := meds[i].Clone()
				prev = &existing
				break
			}
		}
	}

	if prepare != nil {
		if err := prepare(prev, &m); err != nil {
			return medicine.Medicine{}, prev, err
		}
	}

	if idx >= 0 && meds[idx].ID == m.ID {
		meds[idx] = m
	} else {
		meds = append(meds, m)
	}
	if err := r.save(ctx, meds); err != nil {
		return medicine.Medicine{}, prev, err
	}
	return m, prev, nil
}
