/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genai

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePCM16(t *testing.T) {
	pcm := make([]byte, 2*SpeechSampleRate)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(0x4000))
	minus := int16(-32768)
	binary.LittleEndian.PutUint16(pcm[2:], uint16(minus))
	clip, err := DecodePCM16(pcm)
	require.NoError(t, err)
	assert.Equal(t, SpeechSampleRate, clip.SampleRate)
	assert.Equal(t, time.Second, clip.Duration())
	assert.InDelta(t, 0.5, clip.Samples[0], 1e-6)
	assert.InDelta(t, -1.0, clip.Samples[1], 1e-6)

	_, err = DecodePCM16([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := []byte{1, 0, 2, 0}
	wav := EncodeWAV(pcm, SpeechSampleRate, 1)
	require.Len(t, wav, 48)
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(40), binary.LittleEndian.Uint32(wav[4:]))
	assert.Equal(t, uint32(SpeechSampleRate), binary.LittleEndian.Uint32(wav[24:]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:]))
	assert.Equal(t, pcm, wav[44:])
}
