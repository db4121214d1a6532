/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonPlanProgress(t *testing.T) {
	p := NewLessonPlan(Lesson{Title: "Explore the Solar System", Tasks: []string{"1", "2", "3", "4", "5", "6", "7", "8"}})
	assert.Equal(t, 0.0, p.Progress())

	require.NoError(t, p.Toggle(3))
	assert.True(t, p.Tasks[3].Completed)
	assert.Equal(t, 1, p.CompletedCount())
	assert.Equal(t, 8, p.Total())
	assert.Equal(t, 12.5, p.Progress())

	require.NoError(t, p.Toggle(3))
	assert.Equal(t, 0, p.CompletedCount())
	assert.Equal(t, "4", p.Tasks[3].Text)
}

func TestLessonPlanEmptyAndOutOfRange(t *testing.T) {
	var p LessonPlan
	assert.Equal(t, 0.0, p.Progress())
	assert.Error(t, p.Toggle(0))
	assert.Error(t, p.Toggle(-1))
}

func TestCloneIsDeep(t *testing.T) {
	p := NewLessonPlan(Lesson{Title: "t", Tasks: []string{"a"}})
	c := p.Clone()
	require.NoError(t, c.Toggle(0))
	assert.False(t, p.Tasks[0].Completed)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "explore-the-solar-system", Slug("Explore the Solar System"))
	assert.Equal(t, "fractions-101", Slug("  Fractions: 101! "))
}
