// Package iocache persists computed snapshots and their history across processes.
package iocache

import (
	"sync"

	"github.com/huangsam/qmetrics/internal/contract"
)

// CacheStoreManager manages the snapshot and history stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	snapshot     contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetSnapshotStore returns the persistent snapshot store, or nil when disabled.
func (mgr *CacheStoreManager) GetSnapshotStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.snapshot
}

// GetHistoryStore returns the history store, or nil when disabled.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
