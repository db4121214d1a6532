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
	"database/sql"
	"fmt"
	"time"
)

// Generation statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Generation is one recorded generation attempt.
type Generation struct {
	ID      int64
	Op      string
	Prompt  string
	Status  string
	Error   string
	Path    string
	Created time.Time
}

// RecordGeneration appends an attempt to the history.
func (c *Cache) RecordGeneration(ctx context.Context, g Generation) error {
	if g.Created.IsZero() {
		g.Created = c.now()
	}
	_, err := c.db.ExecContext(ctx, `INSERT INTO generations(op, prompt, status, error, path, created_at) VALUES(?,?,?,?,?,?)`,
		g.Op, g.Prompt, g.Status, nullable(g.Error), nullable(g.Path), g.Created.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

// RecentGenerations returns up to limit attempts, newest first.
func (c *Cache) RecentGenerations(ctx context.Context, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.QueryContext(ctx, `SELECT id, op, COALESCE(prompt,''), status, COALESCE(error,''), COALESCE(path,''), created_at
		FROM generations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()
	var out []Generation
	for rows.Next() {
		var g Generation
		var ts string
		if err := rows.Scan(&g.ID, &g.Op, &g.Prompt, &g.Status, &g.Error, &g.Path, &ts); err != nil {
			return nil, err
		}
		g.Created, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, g)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
