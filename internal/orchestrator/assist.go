/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"canvasstudio/internal/canvas"
	"canvasstudio/internal/genai"
)

// Roles of transcript messages.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one transcript entry. Failed user messages and the notice that
// answered them are shown but not sent back to the provider.
type Message struct {
	Role   string
	Text   string
	Failed bool
}

// Ask sends query together with a description of the whole canvas and the
// current selection, and appends both sides to the session transcript.
func (o *Orchestrator) Ask(ctx context.Context, query string, deep bool) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("ask: %w", ErrInvalidInput)
	}
	tier := genai.TierFast
	if deep {
		tier = genai.TierDeep
	}
	selected := o.store.Selection()
	req := genai.ConverseRequest{
		Graph:    canvas.Describe(o.store.Nodes(), selected),
		Selected: selected,
		Query:    query,
		Tier:     tier,
	}

	o.mu.Lock()
	req.History = historyOf(o.chat)
	o.chat = append(o.chat, Message{Role: RoleUser, Text: query})
	idx := len(o.chat) - 1
	o.thinking = true
	o.mu.Unlock()
	o.fireChanged()

	reply, err := o.provider.Converse(ctx, req)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = genai.ErrEmptyResponse
	}

	o.mu.Lock()
	o.thinking = false
	if err != nil {
		if idx < len(o.chat) {
			o.chat[idx].Failed = true
		}
	} else {
		o.chat = append(o.chat, Message{Role: RoleModel, Text: strings.TrimSpace(reply)})
	}
	o.mu.Unlock()

	if err != nil {
		ferr := o.fail(ctx, OpConverse, query, err, "tier", tier)
		var f *Failure
		if errors.As(ferr, &f) {
			o.mu.Lock()
			o.chat = append(o.chat, Message{Role: RoleModel, Text: f.Message, Failed: true})
			o.mu.Unlock()
		}
		o.fireChanged()
		return "", ferr
	}
	o.fireChanged()
	o.succeed(ctx, OpConverse, "", "", "tier", tier)
	return strings.TrimSpace(reply), nil
}

func historyOf(msgs []Message) []genai.Turn {
	out := make([]genai.Turn, 0, len(msgs))
	for _, m := range msgs {
		if !m.Failed {
			out = append(out, genai.Turn{Role: m.Role, Text: m.Text})
		}
	}
	return out
}

// Transcript returns a copy of the session conversation.
func (o *Orchestrator) Transcript() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.chat...)
}

// Thinking reports whether the assistant is waiting for a reply.
func (o *Orchestrator) Thinking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.thinking
}

// ClearTranscript forgets the conversation.
func (o *Orchestrator) ClearTranscript() {
	o.mu.Lock()
	o.chat = nil
	o.mu.Unlock()
	o.fireChanged()
}
