/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	applog "canvasstudio/internal/log"
)

// Kinds of cached media; each lives in its own subdirectory.
const (
	KindVideo = "video"
	KindAudio = "audio"
	KindImage = "image"
)

// Entry is one cached media file.
type Entry struct {
	Kind     string
	Path     string
	MIMEType string
	Size     int64
	Created  time.Time
}

// URI returns a file:// location usable as a node source.
func (e Entry) URI() string { return "file://" + filepath.ToSlash(e.Path) }

// Cache stores generated media under a directory and tracks it for eviction.
// It is safe for concurrent use.
type Cache struct {
	dir      string
	db       *sql.DB
	maxBytes int64
	mu       sync.Mutex
	now      func() time.Time
	log      *slog.Logger
}

// Open opens or creates a cache rooted at dir. maxBytes <= 0 disables eviction.
func Open(dir string, maxBytes int64) (*Cache, error) {
	db, err := openIndex(dir)
	if err != nil {
		return nil, err
	}
	return &Cache{dir: dir, db: db, maxBytes: maxBytes, now: time.Now, log: applog.WithComponent("storage")}, nil
}

// Close closes the index database.
func (c *Cache) Close() error { return c.db.Close() }

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

// Put writes data to a content-addressed file and records it. Putting the same
// bytes twice returns the existing entry with a refreshed access time. The
// cache is then trimmed to its size cap, never evicting the new entry.
func (c *Cache) Put(ctx context.Context, kind, mime string, data []byte) (Entry, error) {
	if len(data) == 0 {
		return Entry{}, errors.New("put media: empty data")
	}
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:12]) + extFor(mime)
	sub := filepath.Join(c.dir, kind)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return Entry{}, fmt.Errorf("put media: %w", err)
	}
	path := filepath.Join(sub, name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := writeAtomic(path, data); err != nil {
		return Entry{}, fmt.Errorf("put media: %w", err)
	}
	now := c.now().UTC()
	_, err := c.db.ExecContext(ctx, `INSERT INTO media(kind, path, mime, size, created_at, last_access) VALUES(?,?,?,?,?,?)
		ON CONFLICT(path) DO UPDATE SET last_access=excluded.last_access`,
		kind, path, mime, len(data), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("index media: %w", err)
	}
	if c.maxBytes > 0 {
		if _, _, err := c.evictLocked(ctx, c.maxBytes, path); err != nil {
			c.log.Warn("evict after put failed", slog.Any("err", err))
		}
	}
	return Entry{Kind: kind, Path: path, MIMEType: mime, Size: int64(len(data)), Created: now}, nil
}

// Touch marks a cached file as recently used.
func (c *Cache) Touch(ctx context.Context, path string) error {
	_, err := c.db.ExecContext(ctx, `UPDATE media SET last_access=? WHERE path=?`, c.now().UTC().Format(time.RFC3339Nano), path)
	return err
}

// TotalBytes returns the tracked size of the cache.
func (c *Cache) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	err := c.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM media`).Scan(&total)
	return total, err
}

// EvictToFit deletes least-recently-used files until the cache is within capBytes.
func (c *Cache) EvictToFit(ctx context.Context, capBytes int64) (removed int, freed int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictLocked(ctx, capBytes, "")
}

func (c *Cache) evictLocked(ctx context.Context, capBytes int64, keep string) (int, int64, error) {
	var total int64
	if err := c.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM media`).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("sum media size: %w", err)
	}
	if total <= capBytes {
		return 0, 0, nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT id, path, size FROM media ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC`)
	if err != nil {
		return 0, 0, fmt.Errorf("select victims: %w", err)
	}
	type victim struct {
		id   int64
		path string
		size int64
	}
	var victims []victim
	cur := total
	for rows.Next() && cur > capBytes {
		var v victim
		if err := rows.Scan(&v.id, &v.path, &v.size); err != nil {
			_ = rows.Close()
			return 0, 0, err
		}
		if v.path == keep {
			continue
		}
		victims = append(victims, v)
		cur -= v.size
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, 0, err
	}
	// close the cursor before writing
	if err := rows.Close(); err != nil {
		return 0, 0, err
	}
	var freed int64
	for _, v := range victims {
		if err := os.Remove(v.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("remove cached file", slog.String("path", v.path), slog.Any("err", err))
			continue
		}
		if _, err := c.db.ExecContext(ctx, `DELETE FROM media WHERE id=?`, v.id); err != nil {
			return 0, freed, fmt.Errorf("evict delete: %w", err)
		}
		freed += v.size
	}
	if len(victims) > 0 {
		c.log.Info("media cache trimmed", slog.Int("files", len(victims)), slog.Int64("freed", freed))
	}
	return len(victims), freed, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func extFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])) {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ".bin"
}
