//go:build wireinject
// +build wireinject

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
	"github.com/go-arcade/courier/internal/auth"
	"github.com/go-arcade/courier/internal/bootstrap"
	"github.com/go-arcade/courier/internal/conf"
	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/internal/router"
	"github.com/go-arcade/courier/internal/session"
	"github.com/go-arcade/courier/pkg/cache"
	"github.com/go-arcade/courier/pkg/httpx"
	"github.com/go-arcade/courier/pkg/metrics"
	"github.com/google/wire"
)

func initApp(appConf *conf.AppConfig, messengerStore messenger.Store) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		confProviderSet,
		cache.ProviderSet,
		session.ProviderSet,
		auth.ProviderSet,
		messenger.ProviderSet,
		router.ProviderSet,
		serverProviderSet,
		metrics.ProviderSet,
		bootstrap.NewApp,
	))
}

// confProviderSet splits the application configuration per component.
var confProviderSet = wire.NewSet(
	provideHTTPConfig,
	provideCacheConfig,
	provideSessionConfig,
	provideRegistryConfig,
	provideMetricsConfig,
)

func provideHTTPConfig(appConf *conf.AppConfig) httpx.Conf {
	return appConf.Http
}

func provideCacheConfig(appConf *conf.AppConfig) cache.Conf {
	return appConf.CacheConf()
}

func provideSessionConfig(appConf *conf.AppConfig) session.Conf {
	return appConf.Session
}

func provideRegistryConfig(appConf *conf.AppConfig) messenger.RegistryConf {
	return appConf.Registry
}

func provideMetricsConfig(appConf *conf.AppConfig) metrics.MetricsConfig {
	return appConf.Metrics
}

var serverProviderSet = wire.NewSet(httpx.NewServer)
