package ident

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/store"
)

const deviceIDKey = "device_id"

// NewGUID returns a 36-character hyphenated RFC 4122 version-4 identifier.
// Device identifiers and per-dispatch event IDs both come from here.
func NewGUID() string {
	return uuid.NewString()
}

// DeviceStore hands out the per-browser device identifier: generated once,
// persisted, immutable thereafter.
type DeviceStore struct {
	store store.Store
	log   *zap.Logger
}

func NewDeviceStore(s store.Store, log *zap.Logger) *DeviceStore {
	return &DeviceStore{store: s, log: log}
}

// Get reads the device identifier, generating and persisting one if absent.
// The get-then-set is not atomic: two concurrent callers on the same scope
// can each mint an ID and the last write wins, same as two browser tabs
// loading simultaneously.
func (d *DeviceStore) Get(ctx context.Context) string {
	v, ok, err := d.store.Get(ctx, deviceIDKey)
	if err != nil {
		d.log.Warn("device id read failed, minting transient id", zap.Error(err))
	}
	if ok && v != "" {
		return v
	}

	id := NewGUID()
	if err := d.store.Set(ctx, deviceIDKey, id); err != nil {
		d.log.Warn("device id write failed", zap.Error(err))
	}
	return id
}
