/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"canvasstudio/internal/genai"
)

// ErrNoPlayer is returned when no system player was configured.
var ErrNoPlayer = errors.New("no audio player available")

// PlayerSink plays clips by handing a WAV file to the system's default
// player. Play returns once the clip would have finished, so the node stays
// busy for the length of the speech.
type PlayerSink struct {
	// Dir receives the temporary WAV files; the OS temp dir when empty.
	Dir string
	// Open launches the player, e.g. fyne's App.OpenURL.
	Open func(u *url.URL) error
	// Sleep waits for playback; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p PlayerSink) Play(ctx context.Context, c genai.Clip) error {
	if p.Open == nil {
		return ErrNoPlayer
	}
	f, err := os.CreateTemp(p.Dir, "speech-*.wav")
	if err != nil {
		return fmt.Errorf("create speech file: %w", err)
	}
	_, werr := f.Write(genai.EncodeWAV(PCM16(c.Samples), c.SampleRate, c.Channels))
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("write speech file: %w", werr)
	}
	abs, _ := filepath.Abs(f.Name())
	if err := p.Open(&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}); err != nil {
		return fmt.Errorf("open player: %w", err)
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = waitFor
	}
	return sleep(ctx, c.Duration())
}

// PCM16 converts samples in [-1, 1) back to 16-bit little-endian PCM.
func PCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32768)
		v = math.Max(-32768, math.Min(32767, v))
		u := uint16(int16(v))
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}

func waitFor(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
