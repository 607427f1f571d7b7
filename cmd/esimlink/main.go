// Command esimlink is a demonstration CLI for the SDK: it loads ESIMLINK_*
// configuration from the environment and lists the package catalog for a
// country.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/esimlink/esimlink-go"
)

func main() {
	configureLogging()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func run() error {
	country := flag.String("country", "", "filter packages by ISO country code")
	limit := flag.Int("limit", 25, "maximum number of packages to list")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := esimlink.NewFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}
	defer client.Close()

	packages, err := client.FlatPackages(ctx, esimlink.PackageFilter{
		Country: *country,
		Limit:   *limit,
	})
	if err != nil {
		return fmt.Errorf("listing packages: %w", err)
	}

	for _, pkg := range packages {
		fmt.Printf("%-40s %-20s %8s %3dd %8.2f %s\n",
			pkg.ID, pkg.OperatorTitle, pkg.Data, pkg.Day, pkg.Price, pkg.CountryCode)
	}

	log.Info().Int("packages", len(packages)).Msg("catalog listed")
	return nil
}

func configureLogging() {
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}
