/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

func newStore(t *testing.T) *workspace.Store {
	t.Helper()
	n := 0
	return workspace.New(workspace.Options{
		NewID:    func() string { n++; return fmt.Sprintf("n%d", n) },
		Viewport: vector.Size{W: 800, H: 600},
	})
}

func add(t *testing.T, s *workspace.Store, typ domain.NodeType, at vector.Pt, data domain.Payload) domain.Node {
	t.Helper()
	n, err := s.AddNode(domain.NodeSpec{Type: typ, Position: at, Size: domain.DefaultSize(typ), Data: data})
	require.NoError(t, err)
	return n
}
