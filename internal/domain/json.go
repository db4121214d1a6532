/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"

	"canvasstudio/internal/vector"
)

// wireNode is the JSON shape of a node: common fields plus a raw payload
// decoded according to the type tag.
type wireNode struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Position vector.Pt       `json:"position"`
	Size     vector.Size     `json:"size"`
	Rotation float64         `json:"rotation,omitempty"`
	Data     json.RawMessage `json:"data"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	var data json.RawMessage
	switch d := n.Data.(type) {
	case nil:
		data = json.RawMessage("null")
	case UnknownData:
		data = json.RawMessage(d.Raw)
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", n.Type, err)
		}
		data = b
	}
	return json.Marshal(wireNode{ID: n.ID, Type: n.Type, Position: n.Position, Size: n.Size, Rotation: n.Rotation, Data: data})
}

// UnmarshalJSON decodes a node. Types outside the closed set decode into
// UnknownData so that renderers can show a placeholder instead of failing.
func (n *Node) UnmarshalJSON(b []byte) error {
	var w wireNode
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	p, err := decodePayload(w.Type, w.Data)
	if err != nil {
		return fmt.Errorf("node %s: %w", w.ID, err)
	}
	*n = Node{ID: w.ID, Type: w.Type, Position: w.Position, Size: w.Size, Rotation: w.Rotation, Data: p}
	return nil
}

func decodePayload(t NodeType, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	var (
		p   Payload
		err error
	)
	switch t {
	case TypeText:
		p, err = decodeAs[TextData](raw)
	case TypeImage:
		p, err = decodeAs[ImageData](raw)
	case TypeVideo:
		p, err = decodeAs[VideoData](raw)
	case TypeVoice:
		p, err = decodeAs[VoiceData](raw)
	case TypeLink:
		p, err = decodeAs[LinkData](raw)
	case TypeTask:
		p, err = decodeAs[TaskData](raw)
	case TypeDraw:
		p, err = decodeAs[DrawData](raw)
	default:
		p = UnknownData{Type: t, Raw: append([]byte(nil), raw...)}
	}
	return p, err
}

func decodeAs[T Payload](raw json.RawMessage) (Payload, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
