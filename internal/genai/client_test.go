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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL: srv.URL + "/v1beta/",
		APIKey:  "test-key",
		Models: Models{Image: "img", Edit: "edit", Vision: "vision", Video: "veo",
			Speech: "tts", Voice: "Kore", Chat: "flash", Reasoning: "pro"},
		HTTPClient: srv.Client(),
	})
}

func TestGenerateImage(t *testing.T) {
	want := []byte("\x89PNG fake")
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/img:predict", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a red ball", req.Instances[0].Prompt)
		assert.Equal(t, "1:1", req.Parameters.AspectRatio)
		_ = json.NewEncoder(w).Encode(predictResponse{Predictions: []encodedImage{{BytesBase64Encoded: base64.StdEncoding.EncodeToString(want), MIMEType: "image/png"}}})
	})
	img, err := c.GenerateImage(context.Background(), "a red ball", Square)
	require.NoError(t, err)
	assert.Equal(t, want, img.Bytes)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestGenerateImageEmptyPredictions(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"predictions":[]}`)
	})
	_, err := c.GenerateImage(context.Background(), "x", Square)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestEditImageReturnsInlineData(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/edit:generateContent", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "make it blue", req.Contents[0].Parts[1].Text)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"},{"inlineData":{"mimeType":"image/png","data":"`+
			base64.StdEncoding.EncodeToString([]byte("blue"))+`"}}]}}]}`)
	})
	img, err := c.EditImage(context.Background(), Image{Bytes: []byte("red"), MIMEType: "image/png"}, "make it blue")
	require.NoError(t, err)
	assert.Equal(t, "blue", string(img.Bytes))
}

func TestBillingErrorIsDistinct(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"status":"FAILED_PRECONDITION","message":"Veo is only accessible to billed users. Enable billing."}}`)
	})
	_, err := c.GenerateVideo(context.Background(), "waves", Landscape, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBillingRequired))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "FAILED_PRECONDITION", apiErr.Code)
}

func TestOtherErrorsAreNotBilling(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.AnalyzeImage(context.Background(), Image{Bytes: []byte{1}}, "describe")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBillingRequired))
	assert.Contains(t, err.Error(), "boom")
}

func TestVideoOperationLifecycle(t *testing.T) {
	polls := 0
	var srvURL string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ":predictLongRunning"):
			var req predictRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.NotNil(t, req.Instances[0].Image)
			_, _ = io.WriteString(w, `{"name":"operations/op-1"}`)
		case r.URL.Path == "/v1beta/operations/op-1":
			polls++
			if polls < 2 {
				_, _ = io.WriteString(w, `{"name":"operations/op-1","done":false}`)
				return
			}
			_, _ = io.WriteString(w, `{"name":"operations/op-1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"`+srvURL+`/files/v.mp4"}}]}}}`)
		case r.URL.Path == "/files/v.mp4":
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
			_, _ = io.WriteString(w, "MP4DATA")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	srvURL = strings.TrimSuffix(c.base, "/v1beta")

	ctx := context.Background()
	op, err := c.GenerateVideo(ctx, "", Portrait, &Image{Bytes: []byte("img"), MIMEType: "image/png"})
	require.NoError(t, err)
	st, err := c.PollVideo(ctx, op)
	require.NoError(t, err)
	assert.False(t, st.Done)
	st, err = c.PollVideo(ctx, op)
	require.NoError(t, err)
	require.True(t, st.Done)
	data, err := c.FetchMedia(ctx, st.MediaURI)
	require.NoError(t, err)
	assert.Equal(t, "MP4DATA", string(data))
}

func TestConverseSelectsModelByTier(t *testing.T) {
	var paths []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Contains(t, req.SystemInstruction.Parts[0].Text, "text n1")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"  hello  "}]}}]}`)
	})
	req := ConverseRequest{Graph: "- text n1 at (0,0): hi", Query: "what?"}
	out, err := c.Converse(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	req.Tier = TierDeep
	_, err = c.Converse(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"/v1beta/models/flash:generateContent", "/v1beta/models/pro:generateContent"}, paths)
}

func TestMissingKey(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := c.GenerateImage(context.Background(), "x", Square)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
