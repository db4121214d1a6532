/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genai

import (
	"context"
	"fmt"
	"strings"
)

const speechStyle = "Say in a warm, clear classroom voice: "

// SynthesizeSpeech reads text aloud with the configured prebuilt voice.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesize speech: empty text")
	}
	sc := &speechConfig{}
	sc.VoiceConfig.PrebuiltVoiceConfig.VoiceName = c.models.Voice
	resp, err := c.generate(ctx, c.models.Speech, generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{textPart(speechStyle + text)}}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"AUDIO"}, SpeechConfig: sc},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	_, pcm, err := resp.inline()
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return pcm, nil
}

const assistantInstruction = `You are a teaching assistant embedded in a spatial canvas.
The user's canvas is described below, one node per line. Selected nodes are marked [selected].
Answer concisely in markdown and refer to nodes by their id when useful.`

// Converse answers a query about the canvas. TierDeep routes to the reasoning
// model with a thinking budget; TierFast disables thinking.
func (c *Client) Converse(ctx context.Context, req ConverseRequest) (string, error) {
	model := c.models.Chat
	think := &thinkingConfig{ThinkingBudget: 0}
	if req.Tier == TierDeep {
		model = c.models.Reasoning
		think = &thinkingConfig{ThinkingBudget: -1}
	}
	sys := assistantInstruction + "\n\nCanvas:\n" + req.Graph
	if len(req.Selected) > 0 {
		sys += "\nSelected ids: " + strings.Join(req.Selected, ", ")
	}
	contents := make([]content, 0, len(req.History)+1)
	for _, t := range req.History {
		contents = append(contents, content{Role: t.Role, Parts: []part{textPart(t.Text)}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{textPart(req.Query)}})
	resp, err := c.generate(ctx, model, generateRequest{
		Contents:          contents,
		SystemInstruction: &content{Parts: []part{textPart(sys)}},
		GenerationConfig:  &generationConfig{ThinkingConfig: think},
	})
	if err != nil {
		return "", fmt.Errorf("converse (%s): %w", req.Tier, err)
	}
	txt := resp.text()
	if txt == "" {
		return "", fmt.Errorf("converse: %w", ErrEmptyResponse)
	}
	return txt, nil
}
