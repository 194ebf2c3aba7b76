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

// Package conf loads TOML configuration through viper.
package conf

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// DefaultDir is searched for config.toml when no file is given.
	DefaultDir  = "./conf.d"
	defaultName = "config"
	configType  = "toml"
)

// New returns a viper instance reading TOML and environment variables named
// <PREFIX>_<SECTION>_<KEY>.
func New(envPrefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file, or config.toml from DefaultDir when file is empty, and
// decodes the merged settings into out. A missing default file is not an
// error; a missing explicit file is.
func Load(v *viper.Viper, file string, out any) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(DefaultDir)
		v.SetConfigName(defaultName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "failed to read configuration file")
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return errors.Wrap(err, "failed to unmarshal configuration file")
	}
	return nil
}

// Watch calls onChange whenever the loaded file changes. It does nothing
// when no file was read.
func Watch(v *viper.Viper, onChange func(fsnotify.Event)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}
	v.OnConfigChange(onChange)
	v.WatchConfig()
	return true
}

// Dump encodes settings as TOML.
func Dump(settings any) ([]byte, error) {
	data, err := toml.Marshal(settings)
	if err != nil {
		return nil, errors.Wrap(err, "encode configuration")
	}
	return data, nil
}
