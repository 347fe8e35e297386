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

// Package store opens the configured storage backend and exposes every
// repository behind its domain interface.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nexussuite/clubcore/internal/audit"
	"github.com/nexussuite/clubcore/internal/config"
	"github.com/nexussuite/clubcore/internal/invite"
	"github.com/nexussuite/clubcore/internal/member"
	"github.com/nexussuite/clubcore/internal/observability/logger"
	"github.com/nexussuite/clubcore/internal/record"
	"github.com/nexussuite/clubcore/internal/store/memory"
	"github.com/nexussuite/clubcore/internal/store/postgres"
	"github.com/nexussuite/clubcore/internal/tenant"
)

// Stores bundles the repositories of one backend.
type Stores struct {
	Tenants tenant.Repository
	Members member.RoleStore
	Records record.Store
	Invites invite.Repository
	Ledger  audit.Ledger

	close func()
}

// Close releases the backend's resources.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// PostgresConfig converts the database section for the postgres package.
func PostgresConfig(c config.DatabaseConfig) postgres.Config {
	return postgres.Config{
		Host:         c.Host,
		Port:         c.Port,
		User:         c.User,
		Password:     c.Password,
		Database:     c.Name,
		SSLMode:      c.SSLMode,
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
	}
}

// Open connects the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		db, err := memory.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create memory store: %w", err)
		}
		slog.WarnContext(ctx, "using in-memory store; data is lost on exit", logger.Component("store"))
		return &Stores{
			Tenants: memory.NewTenantRepository(db),
			Members: memory.NewMemberRepository(db),
			Records: memory.NewRecordRepository(db),
			Invites: memory.NewInviteRepository(db),
			Ledger:  memory.NewAuditRepository(db),
		}, nil

	case config.DriverPostgres:
		pgCfg := PostgresConfig(cfg.Database)
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(pgCfg); err != nil {
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			slog.InfoContext(ctx, "database migrations applied", logger.Component("store"))
		}
		db, err := postgres.New(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Tenants: postgres.NewTenantRepository(db),
			Members: postgres.NewMemberRepository(db),
			Records: postgres.NewRecordRepository(db),
			Invites: postgres.NewInviteRepository(db),
			Ledger:  postgres.NewAuditRepository(db),
			close:   db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
