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

package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConf struct {
	Server struct {
		Host string
		Port int
	}
	Debug bool
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "debug = true\n[server]\nhost = \"0.0.0.0\"\nport = 9000\n")

	v := New("CONFTEST")
	var c testConf
	require.NoError(t, Load(v, path, &c))

	assert.True(t, c.Debug)
	assert.Equal(t, "0.0.0.0", c.Server.Host)
	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, path, v.ConfigFileUsed())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "[server]\nport = 9000\n")
	t.Setenv("CONFTEST_SERVER_PORT", "9100")

	v := New("CONFTEST")
	var c testConf
	require.NoError(t, Load(v, path, &c))
	assert.Equal(t, 9100, c.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	var c testConf
	err := Load(New("CONFTEST"), filepath.Join(t.TempDir(), "absent.toml"), &c)
	assert.Error(t, err)
}

func TestLoadWithoutDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	v := New("CONFTEST")
	v.SetDefault("server.port", 8080)
	var c testConf
	require.NoError(t, Load(v, "", &c))
	assert.Equal(t, 8080, c.Server.Port)
	assert.False(t, Watch(v, nil))
}

func TestDump(t *testing.T) {
	var c testConf
	c.Server.Host = "localhost"
	c.Server.Port = 8080

	data, err := Dump(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Server]")
	assert.Contains(t, string(data), "Port = 8080")
}
