// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate [-config file] up|down|version|force N
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/nexussuite/clubcore/internal/config"
	"github.com/nexussuite/clubcore/internal/store"
	"github.com/nexussuite/clubcore/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", os.Getenv("CLUBCORE_CONFIG"), "path to a YAML config file")
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	m, err := postgres.NewMigrator(store.PostgresConfig(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer m.Close()

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if flag.NArg() < 2 {
			log.Fatal("force requires a version")
		}
		v, convErr := strconv.Atoi(flag.Arg(1))
		if convErr != nil {
			log.Fatalf("Invalid version %q: %v", flag.Arg(1), convErr)
		}
		err = m.Force(v)
	case "version":
	default:
		log.Fatalf("Unknown command %q (want up, down, version or force)", cmd)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Migration %s failed: %v", cmd, err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Println("No migrations applied")
	case err != nil:
		log.Fatalf("Failed to read version: %v", err)
	default:
		fmt.Printf("Schema version %d (dirty: %t)\n", version, dirty)
	}
}
