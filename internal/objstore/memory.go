package objstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/driftstore/driftstore/pkg/types"
)

// Memory is an in-memory ObjectStore. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data     []byte
	modified time.Time
}

// NewMemory returns an empty in-memory object store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

var _ ObjectStore = (*Memory)(nil)

func (m *Memory) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, &types.NotFoundError{Key: key}
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

func (m *Memory) GetObjectRange(_ context.Context, key string, rng types.BackendRange) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, &types.NotFoundError{Key: key}
	}
	part, err := ApplyRange(obj.data, rng)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(part))
	copy(out, part)
	return out, nil
}

func (m *Memory) PutObject(_ context.Context, key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)
	m.mu.Lock()
	m.objects[key] = memObject{data: stored, modified: time.Now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return &types.NotFoundError{Key: key}
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) ListObjects(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) HeadObject(_ context.Context, key string) (ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return ObjectInfo{}, &types.NotFoundError{Key: key}
	}
	sum := sha256.Sum256(obj.data)
	return ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		LastModified: obj.modified,
		ETag:         hex.EncodeToString(sum[:8]),
	}, nil
}
