/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvasstudio/internal/canvas"
	"canvasstudio/internal/domain"
	"canvasstudio/internal/genai"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/storage"
	"canvasstudio/internal/vector"
	"canvasstudio/internal/workspace"
)

type fakeProvider struct {
	mu sync.Mutex

	image    genai.Image
	imageErr error
	edited   genai.Image
	analysis string
	speech   []byte
	reply    string
	err      error // returned by every call when set

	videoErr error
	polls    []genai.OperationStatus
	pollN    int
	media    []byte

	gate      chan struct{} // when set, calls block until it is closed
	onAnalyze func()
	requests  []genai.ConverseRequest
	prompts   []string
}

func (p *fakeProvider) wait(ctx context.Context) error {
	if p.gate == nil {
		return nil
	}
	select {
	case <-p.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakeProvider) GenerateImage(ctx context.Context, prompt string, _ genai.AspectRatio) (genai.Image, error) {
	if err := p.wait(ctx); err != nil {
		return genai.Image{}, err
	}
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()
	if p.imageErr != nil {
		return genai.Image{}, p.imageErr
	}
	return p.image, p.err
}

func (p *fakeProvider) EditImage(ctx context.Context, _ genai.Image, _ string) (genai.Image, error) {
	return p.edited, p.err
}

func (p *fakeProvider) AnalyzeImage(ctx context.Context, _ genai.Image, instruction string) (string, error) {
	if instruction != AnalysisInstruction {
		return "", errors.New("unexpected instruction")
	}
	if p.onAnalyze != nil {
		p.onAnalyze()
	}
	return p.analysis, p.err
}

func (p *fakeProvider) GenerateVideo(ctx context.Context, _ string, _ genai.AspectRatio, _ *genai.Image) (genai.Operation, error) {
	if p.videoErr != nil {
		return genai.Operation{}, p.videoErr
	}
	return genai.Operation{Name: "operations/v1"}, nil
}

func (p *fakeProvider) PollVideo(ctx context.Context, op genai.Operation) (genai.OperationStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.pollN
	p.pollN++
	if i < len(p.polls) {
		return p.polls[i], nil
	}
	return genai.OperationStatus{}, nil
}

func (p *fakeProvider) FetchMedia(ctx context.Context, uri string) ([]byte, error) {
	return p.media, p.err
}

func (p *fakeProvider) SynthesizeSpeech(ctx context.Context, _ string) ([]byte, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.speech, p.err
}

func (p *fakeProvider) Converse(ctx context.Context, req genai.ConverseRequest) (string, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	return p.reply, p.err
}

type fakeMedia struct {
	mu   sync.Mutex
	puts []string
	gens []storage.Generation
}

func (m *fakeMedia) Put(_ context.Context, kind, mime string, data []byte) (storage.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, kind)
	return storage.Entry{Kind: kind, MIMEType: mime, Path: fmt.Sprintf("/cache/%s/%d", kind, len(m.puts)), Size: int64(len(data))}, nil
}

func (m *fakeMedia) RecordGeneration(_ context.Context, g storage.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens = append(m.gens, g)
	return nil
}

type fakeAudio struct{ clips []genai.Clip }

func (a *fakeAudio) Play(_ context.Context, c genai.Clip) error {
	a.clips = append(a.clips, c)
	return nil
}

type nopRecorder struct{}

func (nopRecorder) Event(string, map[string]any) {}

type fixture struct {
	store   *workspace.Store
	prov    *fakeProvider
	media   *fakeMedia
	audio   *fakeAudio
	orch    *Orchestrator
	sleeps  []time.Duration
	notices []Notice
	mu      sync.Mutex
}

func newFixture(t *testing.T, prov *fakeProvider) *fixture {
	t.Helper()
	n := 0
	f := &fixture{
		store: workspace.New(workspace.Options{
			NewID:    func() string { n++; return fmt.Sprintf("n%d", n) },
			Viewport: vector.Size{W: 800, H: 600},
		}),
		prov:  prov,
		media: &fakeMedia{},
		audio: &fakeAudio{},
	}
	f.orch = New(Options{
		Provider: prov,
		Store:    f.store,
		Media:    f.media,
		Audio:    f.audio,
		Recorder: nopRecorder{},
		Notify: func(n Notice) {
			f.mu.Lock()
			f.notices = append(f.notices, n)
			f.mu.Unlock()
		},
		MaxPollAttempts: 5,
		Sleep: func(_ context.Context, d time.Duration) error {
			f.mu.Lock()
			f.sleeps = append(f.sleeps, d)
			f.mu.Unlock()
			return nil
		},
	})
	t.Cleanup(f.orch.Close)
	return f
}

func (f *fixture) addImage(t *testing.T, raw []byte) domain.Node {
	t.Helper()
	n, err := f.store.AddNode(domain.NodeSpec{
		Type:     domain.TypeImage,
		Position: vector.Pt{X: 10, Y: 20},
		Size:     vector.Size{W: 300, H: 300},
		Data:     domain.ImageData{Src: "x", Alt: "a cat", Raw: raw, MIMEType: "image/png"},
	})
	require.NoError(t, err)
	return n
}

func TestGenerateImageAddsNode(t *testing.T) {
	x := []byte{0x89, 'P', 'N', 'G'}
	f := newFixture(t, &fakeProvider{image: genai.Image{Bytes: x, MIMEType: "image/png"}})

	n, err := f.orch.GenerateImage(context.Background(), ImageRequest{Prompt: "a red ball", Aspect: genai.Square})
	require.NoError(t, err)
	d, ok := n.Image()
	require.True(t, ok)
	assert.Equal(t, DataURI("image/png", x), d.Src)
	assert.Equal(t, "a red ball", d.Prompt)
	assert.Equal(t, "a red ball", d.Alt)
	assert.Equal(t, x, d.Raw)
	assert.Equal(t, vector.Size{W: 300, H: 300}, n.Size)
	assert.Equal(t, vector.Pt{X: 250, Y: 150}, n.Position, "centred in the viewport")
	assert.Equal(t, 1, f.store.Len())
	require.Len(t, f.media.gens, 1)
	assert.Equal(t, storage.StatusSucceeded, f.media.gens[0].Status)
}

func TestGenerateImageRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, &fakeProvider{})
	_, err := f.orch.GenerateImage(context.Background(), ImageRequest{Prompt: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.orch.GenerateImage(context.Background(), ImageRequest{Prompt: "x", Aspect: "2:1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.prov.prompts)
}

func TestGenerateImageFailureIsOneShortNotice(t *testing.T) {
	raw := &genai.APIError{Status: 500, Code: "INTERNAL", Message: "backend shard 17 exploded"}
	f := newFixture(t, &fakeProvider{imageErr: raw})
	_, err := f.orch.GenerateImage(context.Background(), ImageRequest{Prompt: "a red ball"})
	require.Error(t, err)
	assert.ErrorIs(t, err, raw)
	assert.NotContains(t, err.Error(), "shard")
	assert.Equal(t, 0, f.store.Len())
	require.Len(t, f.notices, 1)
	assert.Equal(t, LevelError, f.notices[0].Level)
	assert.Equal(t, UserMessage(OpGenerateImage, raw), f.notices[0].Message)
	require.Len(t, f.media.gens, 1)
	assert.Equal(t, storage.StatusFailed, f.media.gens[0].Status)
}

func TestAspectSize(t *testing.T) {
	assert.Equal(t, vector.Size{W: 300, H: 300}, AspectSize(genai.Square, 300))
	assert.Equal(t, vector.Size{W: 320, H: 180}, AspectSize(genai.Landscape, 320))
	assert.Equal(t, vector.Size{W: 300, H: 400}, AspectSize(genai.Tall, 300))
	assert.Equal(t, vector.Size{W: 10, H: 10}, AspectSize("nope", 10))
}

func TestEditImageReplacesPayload(t *testing.T) {
	y := []byte{1, 2, 3}
	f := newFixture(t, &fakeProvider{edited: genai.Image{Bytes: y, MIMEType: "image/jpeg"}})
	n := f.addImage(t, []byte{9})

	require.NoError(t, f.orch.EditImage(context.Background(), n.ID, "add a hat"))
	got, _ := f.store.Node(n.ID)
	d, _ := got.Image()
	assert.Equal(t, y, d.Raw)
	assert.Equal(t, "image/jpeg", d.MIMEType)
	assert.Equal(t, DataURI("image/jpeg", y), d.Src)
	assert.Equal(t, "a cat (edited: add a hat)", d.Alt)
	assert.Equal(t, "add a hat", d.Prompt)
	assert.Equal(t, n.Position, got.Position)
}

func TestEditImageFailureLeavesNode(t *testing.T) {
	f := newFixture(t, &fakeProvider{err: errors.New("boom")})
	n := f.addImage(t, []byte{9})
	require.Error(t, f.orch.EditImage(context.Background(), n.ID, "add a hat"))
	got, _ := f.store.Node(n.ID)
	assert.Equal(t, n, got)
}

func TestImageOpsRefuseUnloadedPayload(t *testing.T) {
	f := newFixture(t, &fakeProvider{})
	n := f.addImage(t, nil)
	assert.ErrorIs(t, f.orch.EditImage(context.Background(), n.ID, "x"), canvas.ErrImageNotLoaded)
	assert.ErrorIs(t, f.orch.AnalyzeImage(n.ID), canvas.ErrImageNotLoaded)
	assert.Empty(t, f.notices)
}

func TestAnalyzePlacesTextBelow(t *testing.T) {
	f := newFixture(t, &fakeProvider{analysis: " A cat on a mat. "})
	img := f.addImage(t, []byte{1})

	require.NoError(t, f.orch.AnalyzeImage(img.ID))
	f.orch.Wait()

	nodes := f.store.Nodes()
	require.Len(t, nodes, 2)
	txt := nodes[1]
	d, ok := txt.Text()
	require.True(t, ok)
	assert.Equal(t, "A cat on a mat.", d.Text)
	assert.Equal(t, vector.Pt{X: 10, Y: 20 + 300 + analysisGap}, txt.Position)
	assert.Equal(t, 300.0, txt.Size.W)
}

func TestAnalyzeAfterDeleteIsSilent(t *testing.T) {
	prov := &fakeProvider{analysis: "text"}
	f := newFixture(t, prov)
	img := f.addImage(t, []byte{1})
	prov.onAnalyze = func() {
		f.store.SelectNode(img.ID, false)
		f.store.DeleteSelectedNodes()
	}
	_, added, err := f.orch.Analyze(context.Background(), img.ID)
	assert.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 0, f.store.Len())
	assert.Empty(t, f.notices)
}

func TestGenerateVideoPollsUntilDone(t *testing.T) {
	prov := &fakeProvider{
		polls: []genai.OperationStatus{{}, {}, {Done: true, MediaURI: "https://media/v.mp4"}},
		media: []byte("mp4"),
	}
	f := newFixture(t, prov)

	n, err := f.orch.GenerateVideo(context.Background(), VideoRequest{Prompt: "a comet", Aspect: genai.Landscape})
	require.NoError(t, err)
	assert.Equal(t, 3, prov.pollN, "two not-done polls, then the final one")
	assert.Equal(t, []time.Duration{DefaultPollInterval, DefaultPollInterval, DefaultPollInterval}, f.sleeps)
	assert.Equal(t, 1, f.store.Len())

	d, ok := n.Video()
	require.True(t, ok)
	assert.Equal(t, "file:///cache/video/1", d.Src)
	assert.Equal(t, "a comet", d.Caption)
	assert.Equal(t, []string{storage.KindVideo}, f.media.puts)
	assert.Equal(t, "/cache/video/1", f.media.gens[0].Path)
}

func TestGenerateVideoTimesOut(t *testing.T) {
	prov := &fakeProvider{}
	f := newFixture(t, prov)
	_, err := f.orch.GenerateVideo(context.Background(), VideoRequest{Prompt: "slow"})
	assert.ErrorIs(t, err, genai.ErrOperationTimeout)
	assert.Equal(t, 5, prov.pollN)
	assert.Equal(t, 0, f.store.Len())
	require.Len(t, f.notices, 1)
	assert.Contains(t, f.notices[0].Message, "too long")
}

func TestGenerateVideoBillingHint(t *testing.T) {
	f := newFixture(t, &fakeProvider{videoErr: &genai.APIError{Status: 400, Code: "FAILED_PRECONDITION", Message: "Billing is not enabled"}})
	_, err := f.orch.GenerateVideo(context.Background(), VideoRequest{Prompt: "x"})
	assert.ErrorIs(t, err, genai.ErrBillingRequired)
	require.Len(t, f.notices, 1)
	assert.Contains(t, f.notices[0].Message, "billing")
	assert.NotEqual(t, UserMessage(OpGenerateVideo, errors.New("other")), f.notices[0].Message)
}

func TestBillingHintOnlyForVideo(t *testing.T) {
	billing := &genai.APIError{Status: 403, Code: "PERMISSION_DENIED", Message: "Billing account for project is disabled"}
	require.ErrorIs(t, billing, genai.ErrBillingRequired)
	f := newFixture(t, &fakeProvider{imageErr: billing})
	_, err := f.orch.GenerateImage(context.Background(), ImageRequest{Prompt: "a red ball"})
	require.Error(t, err)
	require.Len(t, f.notices, 1)
	assert.Equal(t, "Could not generate the image. Please try again.", f.notices[0].Message)
	assert.NotContains(t, UserMessage(OpConverse, billing), "Video")
}

func TestTaskLogsCarryTaskKey(t *testing.T) {
	var buf bytes.Buffer
	applog.Init(applog.Options{Level: "debug", Format: "json", Console: &buf})
	t.Cleanup(func() { applog.Init(applog.FromEnv()) })

	f := newFixture(t, &fakeProvider{err: errors.New("tts down")})
	n, err := f.store.AddNode(domain.NodeSpec{Type: domain.TypeText, Data: domain.TextData{Text: "hi"}})
	require.NoError(t, err)
	require.NoError(t, f.orch.ReadAloud(n.ID))
	f.orch.Wait()

	var failed map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == "operation failed" {
			failed = rec
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, NodeKey(OpSpeak, n.ID), failed["task"])
	assert.Equal(t, OpSpeak, failed["op"])
}

func TestAnimateUsesSourceImage(t *testing.T) {
	prov := &fakeProvider{polls: []genai.OperationStatus{{Done: true, MediaURI: "m"}}, media: []byte("v")}
	f := newFixture(t, prov)
	img := f.addImage(t, []byte{1})

	_, err := f.orch.GenerateVideo(context.Background(), VideoRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput, "no prompt and no source")

	n, err := f.orch.GenerateVideo(context.Background(), VideoRequest{
		Aspect:       genai.Portrait,
		Source:       &genai.Image{Bytes: []byte{1}, MIMEType: "image/png"},
		SourceNodeID: img.ID,
	})
	require.NoError(t, err)
	d, _ := n.Video()
	assert.Equal(t, "Animation of a cat", d.Caption)
	assert.Equal(t, vector.Size{W: 225, H: 400}, n.Size)
	assert.Equal(t, vector.Pt{X: 10 + 300 + analysisGap, Y: 20}, n.Position)
}

func TestCloseCancelsPolling(t *testing.T) {
	store := workspace.New(workspace.Options{})
	o := New(Options{Provider: &fakeProvider{}, Store: store, Recorder: nopRecorder{}, PollInterval: time.Hour})
	started := make(chan struct{})
	require.NoError(t, o.Go("video", func(ctx context.Context) {
		close(started)
		_, _ = o.GenerateVideo(ctx, VideoRequest{Prompt: "x"})
	}))
	<-started
	o.Close()
	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, o.Go("again", func(context.Context) {}), ErrClosed)
}

func TestSpeakDecodesAndPlays(t *testing.T) {
	f := newFixture(t, &fakeProvider{speech: []byte{0, 0, 0, 0x40}})
	require.NoError(t, f.orch.Speak(context.Background(), "hello"))
	require.Len(t, f.audio.clips, 1)
	c := f.audio.clips[0]
	assert.Equal(t, 24000, c.SampleRate)
	assert.Equal(t, 1, c.Channels)
	assert.Equal(t, []float32{0, 0.5}, c.Samples)
	assert.Equal(t, []string{storage.KindAudio}, f.media.puts)
	assert.Equal(t, 0, f.store.Len())
}

func TestReadAloudBusyIndicator(t *testing.T) {
	prov := &fakeProvider{speech: []byte{0, 0}, gate: make(chan struct{})}
	f := newFixture(t, prov)
	n, err := f.store.AddNode(domain.NodeSpec{Type: domain.TypeText, Data: domain.TextData{Text: "hi"}})
	require.NoError(t, err)

	require.NoError(t, f.orch.ReadAloud(n.ID))
	assert.True(t, f.orch.Speaking(n.ID))
	assert.ErrorIs(t, f.orch.ReadAloud(n.ID), ErrBusy)

	close(prov.gate)
	f.orch.Wait()
	assert.False(t, f.orch.Speaking(n.ID))
	assert.Len(t, f.audio.clips, 1)
}

func TestReadAloudFailureClearsBusy(t *testing.T) {
	f := newFixture(t, &fakeProvider{err: errors.New("tts down")})
	n, err := f.store.AddNode(domain.NodeSpec{Type: domain.TypeText, Data: domain.TextData{Text: "hi"}})
	require.NoError(t, err)
	require.NoError(t, f.orch.ReadAloud(n.ID))
	f.orch.Wait()
	assert.False(t, f.orch.Speaking(n.ID))
	require.Len(t, f.notices, 1)
	got, _ := f.store.Node(n.ID)
	assert.Equal(t, n, got)
}

func TestAskSendsGraphAndKeepsTranscript(t *testing.T) {
	prov := &fakeProvider{reply: "Try adding Mars."}
	f := newFixture(t, prov)
	n, err := f.store.AddNode(domain.NodeSpec{Type: domain.TypeText, Data: domain.TextData{Text: "Earth"}})
	require.NoError(t, err)
	f.store.SelectNode(n.ID, false)

	reply, err := f.orch.Ask(context.Background(), "what next?", true)
	require.NoError(t, err)
	assert.Equal(t, "Try adding Mars.", reply)
	require.Len(t, prov.requests, 1)
	req := prov.requests[0]
	assert.Equal(t, genai.TierDeep, req.Tier)
	assert.Equal(t, []string{n.ID}, req.Selected)
	assert.Contains(t, req.Graph, `"Earth" [selected]`)
	assert.Empty(t, req.History)

	_, err = f.orch.Ask(context.Background(), "and then?", false)
	require.NoError(t, err)
	assert.Len(t, prov.requests[1].History, 2)
	assert.Equal(t, genai.TierFast, prov.requests[1].Tier)
	assert.Len(t, f.orch.Transcript(), 4)
	assert.False(t, f.orch.Thinking())
}

func TestAskFailureIsNotReplayed(t *testing.T) {
	prov := &fakeProvider{err: errors.New("503")}
	f := newFixture(t, prov)
	_, err := f.orch.Ask(context.Background(), "hello", false)
	require.Error(t, err)
	tr := f.orch.Transcript()
	require.Len(t, tr, 2)
	assert.True(t, tr[0].Failed)
	assert.Equal(t, RoleModel, tr[1].Role)

	prov.err = nil
	prov.reply = "hi"
	_, err = f.orch.Ask(context.Background(), "hello again", false)
	require.NoError(t, err)
	assert.Empty(t, prov.requests[1].History)
}

func TestSubmitClosesModalOnSuccess(t *testing.T) {
	f := newFixture(t, &fakeProvider{image: genai.Image{Bytes: []byte{1}, MIMEType: "image/png"}})
	at := vector.Pt{X: 5, Y: 6}
	m := f.store.OpenModal(workspace.ModalGenerateImage, workspace.ModalPayload{Position: &at})

	assert.False(t, f.orch.CanSubmit(m, ModalInput{}))
	assert.ErrorIs(t, f.orch.Submit(m, ModalInput{}), ErrInvalidInput)

	require.NoError(t, f.orch.Submit(m, ModalInput{Prompt: "a kite"}))
	f.orch.Wait()
	_, open := f.store.ActiveModal()
	assert.False(t, open)
	nodes := f.store.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, at, nodes[0].Position)
}

func TestSubmitFailureKeepsModalOpen(t *testing.T) {
	f := newFixture(t, &fakeProvider{err: errors.New("nope")})
	m := f.store.OpenModal(workspace.ModalGenerateImage, workspace.ModalPayload{})
	require.NoError(t, f.orch.Submit(m, ModalInput{Prompt: "a kite"}))
	f.orch.Wait()
	active, open := f.store.ActiveModal()
	require.True(t, open)
	assert.Equal(t, m.Seq, active.Seq)
	assert.False(t, f.orch.Pending(ModalKey(m.Seq)))
	assert.Len(t, f.notices, 1)
}

func TestSubmitRejectsDuplicateWhilePending(t *testing.T) {
	prov := &fakeProvider{image: genai.Image{Bytes: []byte{1}}, gate: make(chan struct{})}
	f := newFixture(t, prov)
	m := f.store.OpenModal(workspace.ModalGenerateImage, workspace.ModalPayload{})
	require.NoError(t, f.orch.Submit(m, ModalInput{Prompt: "a"}))
	assert.ErrorIs(t, f.orch.Submit(m, ModalInput{Prompt: "a"}), ErrBusy)
	assert.False(t, f.orch.CanSubmit(m, ModalInput{Prompt: "a"}))
	close(prov.gate)
	f.orch.Wait()
	assert.Equal(t, 1, f.store.Len())
}

func TestSubmitDoesNotCloseReplacementModal(t *testing.T) {
	prov := &fakeProvider{image: genai.Image{Bytes: []byte{1}}, gate: make(chan struct{})}
	f := newFixture(t, prov)
	m := f.store.OpenModal(workspace.ModalGenerateImage, workspace.ModalPayload{})
	require.NoError(t, f.orch.Submit(m, ModalInput{Prompt: "a"}))
	next := f.store.OpenModal(workspace.ModalAssistant, workspace.ModalPayload{})
	close(prov.gate)
	f.orch.Wait()
	active, open := f.store.ActiveModal()
	require.True(t, open)
	assert.Equal(t, next.Seq, active.Seq)
	assert.Equal(t, 1, f.store.Len(), "result still applies")
}
