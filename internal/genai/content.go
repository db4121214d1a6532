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
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// Wire types of the generateContent endpoint.
type (
	inlineData struct {
		MIMEType string `json:"mimeType"`
		Data     string `json:"data"`
	}
	part struct {
		Text       string      `json:"text,omitempty"`
		InlineData *inlineData `json:"inlineData,omitempty"`
	}
	content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	prebuiltVoice struct {
		VoiceName string `json:"voiceName"`
	}
	speechConfig struct {
		VoiceConfig struct {
			PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
		} `json:"voiceConfig"`
	}
	thinkingConfig struct {
		ThinkingBudget int `json:"thinkingBudget"`
	}
	generationConfig struct {
		ResponseModalities []string        `json:"responseModalities,omitempty"`
		SpeechConfig       *speechConfig   `json:"speechConfig,omitempty"`
		ThinkingConfig     *thinkingConfig `json:"thinkingConfig,omitempty"`
	}
	generateRequest struct {
		Contents          []content         `json:"contents"`
		SystemInstruction *content          `json:"systemInstruction,omitempty"`
		GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	}
	generateResponse struct {
		Candidates []struct {
			Content      content `json:"content"`
			FinishReason string  `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
)

func textPart(s string) part { return part{Text: s} }

func imagePart(img Image) part {
	mime := img.MIMEType
	if mime == "" {
		mime = http.DetectContentType(img.Bytes)
	}
	return part{InlineData: &inlineData{MIMEType: mime, Data: base64.StdEncoding.EncodeToString(img.Bytes)}}
}

func (c *Client) generate(ctx context.Context, model string, req generateRequest) (generateResponse, error) {
	var out generateResponse
	if err := c.doJSON(ctx, http.MethodPost, modelPath(model, "generateContent"), req, &out); err != nil {
		return out, err
	}
	if len(out.Candidates) == 0 {
		if r := out.PromptFeedback.BlockReason; r != "" {
			return out, fmt.Errorf("%w: blocked (%s)", ErrEmptyResponse, r)
		}
		return out, ErrEmptyResponse
	}
	return out, nil
}

// text concatenates the text parts of the first candidate.
func (r generateResponse) text() string {
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

// inline returns the first inline binary part of the first candidate.
func (r generateResponse) inline() (mime string, data []byte, err error) {
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return "", nil, fmt.Errorf("decode inline data: %w", err)
		}
		return p.InlineData.MIMEType, b, nil
	}
	return "", nil, ErrEmptyResponse
}
