/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTokens map[string]string

func (m memTokens) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memTokens) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memTokens) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

func isolate(t *testing.T) memTokens {
	t.Helper()
	oldDir, oldStore := configDirOverride, tokenStore
	configDirOverride = t.TempDir()
	mem := memTokens{}
	tokenStore = mem
	t.Cleanup(func() {
		configDirOverride = oldDir
		tokenStore = oldStore
	})
	return mem
}

func TestEnvOverridesProvider(t *testing.T) {
	isolate(t)
	t.Setenv(EnvProviderURL, "https://example.test/v1")
	t.Setenv(EnvPollIntervalMs, "250")
	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/v1", cfg.Provider.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Provider.PollInterval())
}

func TestEnvAPIKeyWinsOverKeyring(t *testing.T) {
	mem := isolate(t)
	mem[keyringService+"/"+keyringAPIKey] = "from-keyring"
	t.Setenv(EnvAPIKey, "")

	_, key, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", key)

	t.Setenv(EnvAPIKey, "from-env")
	_, key, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestSaveThenLoadRoundTripsFileValues(t *testing.T) {
	mem := isolate(t)
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvMediaDir, "")
	cfg := Defaults()
	cfg.Provider.ChatModel = "chat-x"
	cfg.Media.CacheDir = filepath.Join(t.TempDir(), "media")
	cfg.Lessons.Watch = false
	require.NoError(t, Save(cfg, "secret"))
	assert.Equal(t, "secret", mem[keyringService+"/"+keyringAPIKey])

	path, _ := ConfigPath()
	_, err := os.Stat(path)
	require.NoError(t, err)

	got, key, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", key)
	assert.Equal(t, "chat-x", got.Provider.ChatModel)
	assert.Equal(t, cfg.Media.CacheDir, got.Media.CacheDir)
	assert.False(t, got.Lessons.Watch)
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/cvs.log"
	mergeInto(&dst, &src)
	assert.Equal(t, LoggingConfig{Level: "debug", Format: "json", Source: true, File: "/tmp/cvs.log"}, dst.Logging)
}

func TestMergeKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	var src AppConfig
	mergeInto(&dst, &src)
	assert.Equal(t, Defaults().Provider, dst.Provider)
}

func TestEnvOverrideFor(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	env, ok := EnvOverrideFor("logging.level")
	assert.True(t, ok)
	assert.Equal(t, EnvLogLevel, env)

	_, ok = EnvOverrideFor("logging.nope")
	assert.False(t, ok)
}

func TestLoadFillsDefaultMediaDir(t *testing.T) {
	isolate(t)
	t.Setenv(EnvMediaDir, "")
	cfg, _, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Media.CacheDir)
}
