package source

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

// MemSource is an in-memory Store.
type MemSource struct {
	mutex *sync.RWMutex
	db    map[string]Entry
}

func NewMemSource() MemSource {
	return MemSource{
		mutex: &sync.RWMutex{},
		db:    make(map[string]Entry),
	}
}

func (m MemSource) Open(ctx context.Context, id string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.db[id]
	if !ok {
		return nil, ErrNotFound
	}
	// entries are replaced, never modified, so the handle can keep the slice
	return memHandle{entry}, nil
}

func (m MemSource) Put(entry Entry) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.db[entry.ID] = entry
	return nil
}

func (m MemSource) Keys(prefix string, cb func(string)) error {
	m.mutex.RLock()
	keys := make([]string, 0, len(m.db))
	for key := range m.db {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	m.mutex.RUnlock()
	for _, key := range keys {
		cb(key)
	}
	return nil
}

// Purge removes the entry for the given id.
func (m MemSource) Purge(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, id)
}

type memHandle struct {
	entry Entry
}

func (h memHandle) Stat() (Info, error) {
	return Info{
		Size:        uint64(len(h.entry.Bytes)),
		ModTime:     h.entry.Modified,
		ContentType: h.entry.ContentType,
	}, nil
}

func (h memHandle) ReadWindow(start, length uint64) (io.Reader, error) {
	if err := checkWindow(uint64(len(h.entry.Bytes)), start, length); err != nil {
		return nil, err
	}
	return bytes.NewReader(h.entry.Bytes[start : start+length]), nil
}

func (h memHandle) Close() error {
	return nil
}
