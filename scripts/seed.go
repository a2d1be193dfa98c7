// Seed fills the configured database with a sample experiment so the API and
// the frontend have something to show during local development.
//
// Usage:
//
//	go run ./scripts -points 20
//
// DATABASE_URL and the OIDC variables are read the same way the server reads
// them. Running it twice creates a second experiment with a fresh slug.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/angeloszaimis/experiments-viewer/config"
	"github.com/angeloszaimis/experiments-viewer/internal/store"
	"github.com/angeloszaimis/experiments-viewer/pkg/logger"
)

func main() {
	points := flag.Int("points", 20, "Number of points per numeric metric")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Name: "seed"})

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Settings.Database, log)
	if err != nil {
		log.Error("Failed to open database", slog.Any("err", err))
		os.Exit(2)
	}
	defer st.Close()

	id, err := seed(ctx, st, *points)
	if err != nil {
		log.Error("Failed to seed database", slog.Any("err", err))
		os.Exit(3)
	}

	log.Info("Seeded experiment", slog.Int64("id", id))
}

func seed(ctx context.Context, st *store.Store, points int) (int64, error) {
	now := time.Now().UTC()
	exp, err := st.CreateExperiment(ctx, store.Experiment{
		Slug:        "sample-" + strconv.FormatInt(now.Unix(), 10),
		Name:        "Sample experiment",
		Description: "Generated sample data",
		Enabled:     true,
	})
	if err != nil {
		return 0, err
	}

	if err := st.AddAuthor(ctx, exp.ID, store.Author{Name: "Sample Author", Email: "author@example.com"}); err != nil {
		return 0, err
	}

	control, err := st.AddPopulation(ctx, exp.ID, store.Population{Name: "control", TotalClients: 1000, TotalPings: 25000})
	if err != nil {
		return 0, err
	}
	variant, err := st.AddPopulation(ctx, exp.ID, store.Population{Name: "variant", TotalClients: 1000, TotalPings: 24000})
	if err != nil {
		return 0, err
	}

	numeric, err := st.CreateMetric(ctx, store.Metric{Name: "Startup time", Type: "ExponentialHistogram"})
	if err != nil {
		return 0, err
	}
	categorical, err := st.CreateMetric(ctx, store.Metric{Name: "Default search engine", Type: "EnumeratedHistogram"})
	if err != nil {
		return 0, err
	}

	for i, pop := range []store.Population{control, variant} {
		shift := float64(i) * 0.1

		curve := make([]store.Point, points)
		for p := range curve {
			x := float64(p + 1)
			curve[p] = store.Point{X: x, Y: math.Exp(-x/5) * (1 + shift)}
		}
		if err := st.AddPoints(ctx, numeric.ID, pop.ID, curve); err != nil {
			return 0, fmt.Errorf("numeric points: %w", err)
		}

		labels := []string{"Google", "Bing", "DuckDuckGo"}
		cats := make([]store.Point, len(labels))
		for p, label := range labels {
			cats[p] = store.Point{Label: label, X: float64(p), Y: 1 / float64(len(labels)+p) * (1 - shift)}
		}
		if err := st.AddPoints(ctx, categorical.ID, pop.ID, cats); err != nil {
			return 0, fmt.Errorf("categorical points: %w", err)
		}
	}

	return exp.ID, nil
}
