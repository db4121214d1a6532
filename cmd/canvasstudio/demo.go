/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"log/slog"

	"canvasstudio/internal/domain"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

// buildDemo fills st with a small sample board: notes, tasks, a link and a
// sketch, joined by labelled connections.
func buildDemo(st *workspace.Store) []domain.Node {
	specs := []domain.NodeSpec{
		{Type: domain.TypeText, Position: vector.Pt{X: 0, Y: 0}, Size: vector.Size{W: 240, H: 120},
			Data: domain.TextData{Text: "The Sun\nA G-type star at the centre of the Solar System"}},
		{Type: domain.TypeText, Position: vector.Pt{X: 320, Y: -40}, Size: vector.Size{W: 200, H: 100},
			Data: domain.TextData{Text: "Saturn\nFamous for its rings", BackgroundColor: "#bfdbfe"}},
		{Type: domain.TypeTask, Position: vector.Pt{X: 0, Y: 180}, Size: domain.DefaultSize(domain.TypeTask),
			Data: domain.TaskData{Text: "Name the eight planets"}},
		{Type: domain.TypeTask, Position: vector.Pt{X: 0, Y: 240}, Size: domain.DefaultSize(domain.TypeTask),
			Data: domain.TaskData{Text: "Find out why Pluto is a dwarf planet", Done: true}},
		{Type: domain.TypeLink, Position: vector.Pt{X: 320, Y: 120}, Size: domain.DefaultSize(domain.TypeLink),
			Data: domain.LinkData{URL: "https://science.nasa.gov/solar-system/", Title: "NASA Solar System"}},
		{Type: domain.TypeDraw, Position: vector.Pt{X: 600, Y: 0}, Size: vector.Size{W: 160, H: 160}, Rotation: 15,
			Data: domain.DrawData{Points: []vector.Pt{{X: 0, Y: 80}, {X: 40, Y: 20}, {X: 120, Y: 20}, {X: 160, Y: 80}, {X: 80, Y: 150}, {X: 0, Y: 80}}, Color: "#f97316", StrokeWidth: 3}},
	}
	nodes := make([]domain.Node, 0, len(specs))
	for _, s := range specs {
		n, err := st.AddNode(s)
		if err != nil {
			applog.WithComponent("cli").Warn("demo node skipped", slog.String("type", string(s.Type)), slog.Any("err", err))
			continue
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == len(specs) {
		st.AddConnection(nodes[0].ID, nodes[1].ID, "orbits")
		st.AddConnection(nodes[2].ID, nodes[0].ID, "")
		st.AddConnection(nodes[4].ID, nodes[1].ID, "read more")
	}
	return nodes
}
