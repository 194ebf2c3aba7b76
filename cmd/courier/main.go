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
	"fmt"
	"os"

	"github.com/go-arcade/courier/internal/bootstrap"
	"github.com/go-arcade/courier/internal/conf"
	"github.com/go-arcade/courier/internal/store"
	pkgconf "github.com/go-arcade/courier/pkg/conf"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/go-arcade/courier/pkg/version"
	"github.com/spf13/cobra"
)

var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "courier",
		Short:        "Real-time chat server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "conf", "", "config file path, e.g. --conf ./conf.d/config.toml")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newConfigCmd(), version.VersionCmd)
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, _, err := bootstrap.Bootstrap(configFile, cmd.Flags(), initApp)
			if err != nil {
				return err
			}
			return bootstrap.Run(app, cleanup)
		},
	}
	flags := cmd.Flags()
	flags.String("host", "127.0.0.1", "address to listen on")
	flags.Int("port", 8080, "port to listen on")
	flags.String("db", "", "database target: mysql://<dsn> or sqlite://<path>")
	flags.Bool("mock", false, "use the seeded in-memory store")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConf, _, err := conf.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := log.Init(&appConf.Log); err != nil {
				return err
			}
			if err := store.Migrate(cmd.Context(), appConf.Database); err != nil {
				return err
			}
			log.Info("schema is up to date")
			return nil
		},
	}
	cmd.Flags().String("db", "", "database target: mysql://<dsn> or sqlite://<path>")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConf, _, err := conf.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			data, err := pkgconf.Dump(appConf)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	flags := cmd.Flags()
	flags.String("host", "127.0.0.1", "address to listen on")
	flags.Int("port", 8080, "port to listen on")
	flags.String("db", "", "database target: mysql://<dsn> or sqlite://<path>")
	flags.Bool("mock", false, "use the seeded in-memory store")
	return cmd
}
