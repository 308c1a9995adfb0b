// Command seed inserts the sample movies into the configured store and exits.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/Clark-Hu/movie-catalog/internal/app"
	"github.com/Clark-Hu/movie-catalog/internal/config"
)

func main() {
	var (
		timeout   = flag.Duration("timeout", 30*time.Second, "overall deadline")
		printJSON = flag.Bool("print", false, "write the seeded movies to stdout as JSON")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stderr, "[movie-seed] ", log.LstdFlags)

	var out io.Writer
	if *printJSON {
		out = os.Stdout
	}
	if err := run(cfg, *timeout, out, logger); err != nil {
		logger.Fatalf("seed failed: %v", err)
	}
}

func run(cfg config.Config, timeout time.Duration, out io.Writer, logger *log.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	deps, err := app.Open(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	seeded, err := deps.Movies.Populate(ctx)
	if err != nil {
		return err
	}
	logger.Printf("seeded %d movies", len(seeded))

	if out == nil {
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(seeded)
}
