/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genai

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Speech output format: signed 16-bit little-endian, mono, 24 kHz.
const (
	SpeechSampleRate = 24000
	SpeechChannels   = 1
)

// Clip is decoded mono audio ready for playback.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []float32 // in [-1, 1)
}

// Duration is the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// DecodePCM16 converts raw speech output into playable samples. A trailing odd byte is rejected.
func DecodePCM16(pcm []byte) (Clip, error) {
	if len(pcm)%2 != 0 {
		return Clip{}, fmt.Errorf("pcm16: odd byte count %d", len(pcm))
	}
	out := make([]float32, len(pcm)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		out[i] = float32(v) / 32768
	}
	return Clip{SampleRate: SpeechSampleRate, Channels: SpeechChannels, Samples: out}, nil
}

// EncodeWAV wraps raw 16-bit PCM in a RIFF/WAVE container so it can be cached
// and opened by external players.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const bits = 16
	var b bytes.Buffer
	b.Grow(44 + len(pcm))
	blockAlign := channels * bits / 8
	w := func(v any) { _ = binary.Write(&b, binary.LittleEndian, v) }
	b.WriteString("RIFF")
	w(uint32(36 + len(pcm)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1)) // PCM
	w(uint16(channels))
	w(uint32(sampleRate))
	w(uint32(sampleRate * blockAlign))
	w(uint16(blockAlign))
	w(uint16(bits))
	b.WriteString("data")
	w(uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}
