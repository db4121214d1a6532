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
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultEvictSchedule runs the janitor every ten minutes.
const DefaultEvictSchedule = "@every 10m"

// StartJanitor trims the cache once now and then on schedule (cron syntax or
// "@every <duration>"). The returned stop function waits for a running pass.
func (c *Cache) StartJanitor(schedule string) (stop func(), err error) {
	if c.maxBytes <= 0 {
		return func() {}, nil
	}
	if schedule == "" {
		schedule = DefaultEvictSchedule
	}
	pass := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, _, err := c.EvictToFit(ctx, c.maxBytes); err != nil {
			c.log.Warn("media janitor pass failed", slog.Any("err", err))
		}
	}
	sched := cron.New()
	if _, err := sched.AddFunc(schedule, pass); err != nil {
		return nil, fmt.Errorf("janitor schedule %q: %w", schedule, err)
	}
	pass()
	sched.Start()
	c.log.Debug("media janitor started", slog.String("schedule", schedule))
	return func() { <-sched.Stop().Done() }, nil
}
