// Copyright 2026 The NexusSuite Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command clubctl is the platform operator's tool for tenant administration
// and token issuance.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nexussuite/clubcore/internal/audit"
	"github.com/nexussuite/clubcore/internal/config"
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/observability/logger"
	"github.com/nexussuite/clubcore/internal/store"
	"github.com/nexussuite/clubcore/internal/tenant"
)

type rootOptions struct {
	configPath   string
	operatorID   string
	operatorName string
	output       string
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg      *config.Config
	stores   *store.Stores
	tenants  *tenant.Service
	operator identity.Operator
	out      io.Writer
	json     bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "clubctl",
		Short:        "Operate clubcore tenants",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CLUBCORE_CONFIG"), "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.operatorID, "operator", os.Getenv("CLUBCORE_OPERATOR_ID"), "operator ID recorded in the audit trail")
	root.PersistentFlags().StringVar(&opts.operatorName, "operator-name", "", "operator display name")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table or json")

	root.AddCommand(newTenantsCommand(opts))
	root.AddCommand(newTokenCommand(opts))
	return root
}

// loadConfig reads .env, the optional YAML file and the environment.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load(opts.configPath)
}

// open loads config, connects the store and builds the tenant service.
func open(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (*app, error) {
	if opts.operatorID == "" {
		return nil, fmt.Errorf("--operator is required")
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log := logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      "text",
		ServiceName: "clubctl",
		Output:      cmd.ErrOrStderr(),
	})

	stores, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	recorder := audit.NewRecorder(stores.Ledger,
		audit.WithLogger(log),
		audit.WithFailureHook(func(ctx context.Context, e audit.Entry, err error) {
			slog.ErrorContext(ctx, "audit entry dropped", logger.TenantID(e.TenantID), logger.Error(err))
		}),
	)

	name := opts.operatorName
	if name == "" {
		name = opts.operatorID
	}
	return &app{
		cfg:      cfg,
		stores:   stores,
		tenants:  tenant.NewService(stores.Tenants, stores.Members, recorder),
		operator: identity.Operator{ID: opts.operatorID, Name: name},
		out:      cmd.OutOrStdout(),
		json:     opts.output == "json",
	}, nil
}

func (a *app) Close() { a.stores.Close() }
