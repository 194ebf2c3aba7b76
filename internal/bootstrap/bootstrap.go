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

// Package bootstrap loads the configuration, opens storage, assembles the
// application and runs it until a termination signal arrives.
package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/courier/internal/conf"
	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/internal/store"
	"github.com/go-arcade/courier/pkg/httpx"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/go-arcade/courier/pkg/metrics"
	"github.com/go-arcade/courier/pkg/shutdown"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const metricsShutdownTimeout = 5 * time.Second

// App holds the parts a running server needs: the listener, the metrics
// endpoint and the store that is closed after the listener stops.
type App struct {
	Server  *httpx.Server
	Metrics *metrics.Server
	Store   messenger.Store
	AppConf *conf.AppConfig
}

// InitAppFunc builds the application on top of an opened store.
type InitAppFunc func(appConf *conf.AppConfig, messengerStore messenger.Store) (*App, func(), error)

// NewApp collects the running parts. Its cleanup stops the metrics server.
func NewApp(
	server *httpx.Server,
	metricsServer *metrics.Server,
	messengerStore messenger.Store,
	appConf *conf.AppConfig,
) (*App, func(), error) {
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := metricsServer.Stop(ctx); err != nil {
			log.Errorw("metrics server shutdown failed", "error", err)
		}
	}

	app := &App{
		Server:  server,
		Metrics: metricsServer,
		Store:   messengerStore,
		AppConf: appConf,
	}
	return app, cleanup, nil
}

// Bootstrap loads the configuration, starts logging, opens the store and
// builds the App with initApp. The store is closed if initApp fails.
func Bootstrap(configFile string, flags *pflag.FlagSet, initApp InitAppFunc) (*App, func(), *conf.AppConfig, error) {
	appConf, v, err := conf.Load(configFile, flags)
	if err != nil {
		return nil, nil, nil, err
	}

	if _, err := log.NewLog(&appConf.Log); err != nil {
		return nil, nil, appConf, err
	}
	conf.WatchLogLevel(v)

	messengerStore, err := store.Open(context.Background(), appConf.Database)
	if err != nil {
		return nil, nil, appConf, err
	}

	app, cleanup, err := initApp(appConf, messengerStore)
	if err != nil {
		_ = messengerStore.Close()
		return nil, nil, appConf, err
	}
	return app, cleanup, appConf, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func Run(app *App, cleanup func()) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return Serve(app, cleanup, quit)
}

// Serve runs the listener and the metrics server until a value arrives on
// quit or the listener fails. Shutdown order: the listener stops accepting,
// storage closes, then cleanup runs. Streams already open keep running until
// the process exits.
func Serve(app *App, cleanup func(), quit <-chan os.Signal) error {
	mgr := shutdown.NewManager()
	ctx, release := mgr.Context(context.Background())
	defer release()

	err := app.Metrics.Start()
	if err == nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return app.Server.ListenAndServe(gctx)
		})
		g.Go(func() error {
			select {
			case sig := <-quit:
				log.Infow("received signal, shutting down", "signal", sig)
				mgr.Shutdown()
			case <-gctx.Done():
			}
			return nil
		})
		err = g.Wait()
	}
	if err != nil {
		log.Errorw("server failed", "error", err)
	}

	if closeErr := app.Store.Close(); closeErr != nil {
		log.Errorw("closing storage failed", "error", closeErr)
	} else {
		log.Info("storage closed")
	}
	cleanup()

	log.Info("server shutdown complete")
	_ = log.Sync()
	return err
}
