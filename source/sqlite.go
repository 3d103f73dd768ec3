package source

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteSource is a Store keeping representations as blobs in SQLite.
// Windows are read with substr, so a range request never loads the whole blob.
type SQLiteSource struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteSource opens the store with the given filename as the db.
// If file name is empty, a new in-memory db is opened.
func NewSQLiteSource(filename string) (SQLiteSource, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return SQLiteSource{}, err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS blobs (
		id TEXT PRIMARY KEY,
		modified INTEGER,
		content_type TEXT,
		bytes BLOB
	)`)
	if err != nil {
		db.Close()
		return SQLiteSource{}, err
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return SQLiteSource{}, err
	}
	return SQLiteSource{
		db:         db,
		writeMutex: &sync.Mutex{},
	}, nil
}

func (s SQLiteSource) Open(ctx context.Context, id string) (Handle, error) {
	var modified, size int64
	var contentType string
	err := s.db.QueryRowContext(ctx,
		"SELECT modified, content_type, length(bytes) FROM blobs WHERE id = ?", id,
	).Scan(&modified, &contentType, &size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sqliteHandle{
		ctx:      ctx,
		db:       s.db,
		id:       id,
		modified: modified,
		info: Info{
			Size:        uint64(size),
			ModTime:     time.Unix(0, modified),
			ContentType: contentType,
		},
	}, nil
}

func (s SQLiteSource) Put(entry Entry) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	data := entry.Bytes
	if data == nil {
		// length(NULL) is NULL
		data = []byte{}
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO blobs
		(id, modified, content_type, bytes) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Modified.UnixNano(), entry.ContentType, data)
	return err
}

func (s SQLiteSource) Keys(prefix string, cb func(string)) error {
	rows, err := s.db.Query("SELECT id FROM blobs WHERE substr(id, 1, length(?)) = ? ORDER BY id", prefix, prefix)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		cb(id)
	}
	return rows.Err()
}

// Purge removes the entry for the given id.
func (s SQLiteSource) Purge(id string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM blobs WHERE id = ?", id)
	return err
}

func (s SQLiteSource) Close() error {
	return s.db.Close()
}

type sqliteHandle struct {
	ctx      context.Context
	db       *sql.DB
	id       string
	modified int64
	info     Info
}

func (h sqliteHandle) Stat() (Info, error) {
	return h.info, nil
}

// ReadWindow reads the window of the snapshot returned by Stat. If the blob
// was replaced since Open, the window cannot be read anymore.
func (h sqliteHandle) ReadWindow(start, length uint64) (io.Reader, error) {
	if err := checkWindow(h.info.Size, start, length); err != nil {
		return nil, err
	}
	if length == 0 {
		return bytes.NewReader(nil), nil
	}
	var window []byte
	// substr on a blob counts bytes, starting at 1
	err := h.db.QueryRowContext(h.ctx,
		"SELECT substr(bytes, ?, ?) FROM blobs WHERE id = ? AND modified = ?",
		int64(start)+1, int64(length), h.id, h.modified,
	).Scan(&window)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s changed after open", ErrNotFound, h.id)
	}
	if err != nil {
		return nil, err
	}
	if uint64(len(window)) != length {
		return nil, fmt.Errorf("%w: read %d bytes of %d", ErrInvalidWindow, len(window), length)
	}
	return bytes.NewReader(window), nil
}

func (h sqliteHandle) Close() error {
	return nil
}
