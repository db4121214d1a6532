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
	"fmt"
	"strings"

	"canvasstudio/internal/genai"
	"canvasstudio/internal/storage"
)

// Speak synthesizes text, caches the audio and plays it through the sink.
func (o *Orchestrator) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("speak: %w", ErrInvalidInput)
	}
	pcm, err := o.provider.SynthesizeSpeech(ctx, text)
	if err == nil && len(pcm) == 0 {
		err = genai.ErrEmptyResponse
	}
	if err != nil {
		return o.fail(ctx, OpSpeak, text, err)
	}
	clip, err := genai.DecodePCM16(pcm)
	if err != nil {
		return o.fail(ctx, OpSpeak, text, err)
	}
	var path string
	if o.media != nil {
		wav := genai.EncodeWAV(pcm, genai.SpeechSampleRate, genai.SpeechChannels)
		if _, path, err = o.materialize(ctx, storage.KindAudio, "audio/wav", wav); err != nil {
			o.log.WarnContext(ctx, "cache speech failed", "err", err)
		}
	}
	if o.audio != nil {
		if err := o.audio.Play(ctx, clip); err != nil {
			return o.fail(ctx, OpSpeak, text, err)
		}
	}
	o.succeed(ctx, OpSpeak, "", path, "duration", clip.Duration())
	return nil
}

// ReadAloud speaks a text node in the background. The node shows as busy
// until playback ends or fails.
func (o *Orchestrator) ReadAloud(nodeID string) error {
	n, ok := o.store.Node(nodeID)
	if !ok {
		return fmt.Errorf("read aloud %s: %w", nodeID, ErrInvalidInput)
	}
	d, ok := n.Text()
	if !ok || strings.TrimSpace(d.Text) == "" {
		return fmt.Errorf("read aloud %s: %w", nodeID, ErrInvalidInput)
	}
	return o.Go(NodeKey(OpSpeak, nodeID), func(ctx context.Context) {
		_ = o.Speak(ctx, d.Text)
	})
}

// Speaking reports whether a node is being read aloud.
func (o *Orchestrator) Speaking(nodeID string) bool {
	return o.Pending(NodeKey(OpSpeak, nodeID))
}
