// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"testing"

	"github.com/go-arcade/courier/internal/conf"
	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/pkg/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCmd(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--mock", "--port", "9999", "--db", "sqlite://chat.db"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "Port = 9999")
	assert.Contains(t, out.String(), "sqlite://chat.db")
	assert.Contains(t, out.String(), "Mock = true")
}

func TestMigrateCmd(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--db", "sqlite://" + dir + "/chat.db"})
	require.NoError(t, root.Execute())

	root = newRootCmd()
	root.SetArgs([]string{"migrate"})
	assert.Error(t, root.Execute(), "no target")
}

func TestComponentConfigs(t *testing.T) {
	appConf := &conf.AppConfig{
		Http:     httpx.Conf{Host: "127.0.0.1", Port: 9999},
		Registry: messenger.RegistryConf{Capacity: 7, GCInterval: 2},
	}

	assert.Equal(t, appConf.Http, provideHTTPConfig(appConf))
	assert.Equal(t, appConf.Registry, provideRegistryConfig(appConf))
	assert.Equal(t, appConf.Session, provideSessionConfig(appConf))
	assert.Equal(t, appConf.Metrics, provideMetricsConfig(appConf))
}
