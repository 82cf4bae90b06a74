// Command seed loads demo users, projects, bugs and comments into the
// configured Postgres database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/Tyrowin/bugtracker/internal/config"
	"github.com/Tyrowin/bugtracker/internal/database"
	"github.com/Tyrowin/bugtracker/internal/repository"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("error seeding database", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))

	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("seeding requires the %s driver, got %s", config.DriverPostgres, cfg.Database.Driver)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	slog.Info("starting to seed database")
	sum, err := seed(ctx, repository.NewPostgresRepositories(pool))
	if err != nil {
		return err
	}
	if sum.Empty() {
		slog.Info("nothing to do, seed data already present")
		return nil
	}

	slog.Info("successfully seeded database",
		"users", sum.Users,
		"projects", sum.Projects,
		"bugs", sum.Bugs,
		"comments", sum.Comments,
		"activities", sum.Activities)
	fmt.Printf("Seeded %d users, %d projects, %d bugs, %d comments, %d activity logs\n",
		sum.Users, sum.Projects, sum.Bugs, sum.Comments, sum.Activities)
	fmt.Printf("Log in as admin/%s or developer1/%s\n", adminPassword, userPassword)
	return nil
}
