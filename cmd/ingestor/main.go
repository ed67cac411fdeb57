package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/parkfinder/internal/adapters/filestore"
	natsadapter "github.com/samirrijal/parkfinder/internal/adapters/nats"
	"github.com/samirrijal/parkfinder/internal/adapters/postgres"
	"github.com/samirrijal/parkfinder/internal/core/domain"
	"github.com/samirrijal/parkfinder/internal/core/ports"
	"github.com/samirrijal/parkfinder/internal/core/usecases"
	"github.com/samirrijal/parkfinder/internal/pkg/config"
	"github.com/samirrijal/parkfinder/internal/pkg/geospatial"
	"github.com/samirrijal/parkfinder/internal/pkg/logging"
	"github.com/samirrijal/parkfinder/internal/pkg/metrics"
	"github.com/samirrijal/parkfinder/internal/workflows"
)

func main() {
	useTemporal := flag.Bool("temporal", false, "start one import workflow per park instead of writing directly")
	overwrite := flag.Bool("overwrite", false, "replace parks whose park code already exists")
	workers := flag.Int("workers", 4, "concurrent imports")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: ingestor [flags] <parks.json>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("parkfinder-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	parks, err := filestore.DecodeFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("dataset: %v", err)
	}
	slog.Info("dataset loaded", "path", flag.Arg(0), "parks", len(parks))
	for _, c := range keyCollisions(parks) {
		slog.Warn("dataset entries share a park code but are far apart; only one will be stored",
			"park_code", c.ParkCode, "first", c.First, "other", c.Other, "distance_km", c.DistanceKm)
	}

	ctx := context.Background()
	start := time.Now()

	var importOne func(context.Context, domain.Park) (string, error)
	if *useTemporal {
		c, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		defer c.Close()
		importOne = temporalImporter(c, cfg.Temporal.TaskQueue, *overwrite)
	} else {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := db.CheckSchema(ctx); err != nil {
			log.Fatalf("schema: %v (run migrate up first)", err)
		}

		var events ports.EventPublisher
		if cfg.NATS.Enabled {
			pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
			if err != nil {
				slog.Warn("nats unavailable, park events disabled", "error", err)
			} else {
				defer pub.Close()
				events = pub
			}
		}
		importOne = directImporter(usecases.NewParkService(postgres.NewParkRepo(db), events), *overwrite)
	}

	counts := importAll(ctx, parks, *workers, importOne)

	slog.Info("import complete",
		"created", counts[workflows.ActionCreated],
		"updated", counts[workflows.ActionUpdated],
		"skipped", counts[workflows.ActionSkipped],
		"failed", counts["failed"],
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	if counts["failed"] > 0 {
		os.Exit(1)
	}
}

// collisionKm is how far apart two entries with one park code may be before
// they are reported as distinct parks.
const collisionKm = 5.0

type keyCollision struct {
	ParkCode   string
	First      string
	Other      string
	DistanceKm float64
}

// keyCollisions finds entries whose names derive the same park code as an
// earlier entry but lie more than collisionKm away from it.
func keyCollisions(parks []domain.Park) []keyCollision {
	first := make(map[string]domain.Park, len(parks))
	var out []keyCollision
	for _, p := range parks {
		code := domain.DeriveParkCode(p.Name, p.StateCode)
		prev, seen := first[code]
		if !seen {
			first[code] = p
			continue
		}
		d := geospatial.DistanceKm(prev.Latitude, prev.Longitude, p.Latitude, p.Longitude)
		if d > collisionKm {
			out = append(out, keyCollision{ParkCode: code, First: prev.Name, Other: p.Name, DistanceKm: d})
		}
	}
	return out
}

// importAll runs importOne over parks with at most workers in flight and
// returns the number of parks per outcome.
func importAll(ctx context.Context, parks []domain.Park, workers int, importOne func(context.Context, domain.Park) (string, error)) map[string]int64 {
	if workers < 1 {
		workers = 1
	}

	var (
		wg                                sync.WaitGroup
		created, updated, skipped, failed atomic.Int64
	)
	sem := make(chan struct{}, workers)

	for _, p := range parks {
		wg.Add(1)
		go func(p domain.Park) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			action, err := importOne(ctx, p)
			if err != nil {
				failed.Add(1)
				slog.Error("import failed", "name", p.Name, "state", p.StateCode, "error", err)
				return
			}
			switch action {
			case workflows.ActionCreated:
				created.Add(1)
			case workflows.ActionUpdated:
				updated.Add(1)
			default:
				skipped.Add(1)
			}
		}(p)
	}
	wg.Wait()

	return map[string]int64{
		workflows.ActionCreated: created.Load(),
		workflows.ActionUpdated: updated.Load(),
		workflows.ActionSkipped: skipped.Load(),
		"failed":                failed.Load(),
	}
}

// directImporter writes through the park service in this process.
func directImporter(svc *usecases.ParkService, overwrite bool) func(context.Context, domain.Park) (string, error) {
	return func(ctx context.Context, p domain.Park) (string, error) {
		_, err := svc.Create(ctx, &p)
		switch {
		case err == nil:
			metrics.ParksImported.WithLabelValues(workflows.ActionCreated).Inc()
			return workflows.ActionCreated, nil
		case !errors.Is(err, domain.ErrConflict):
			metrics.ParksImported.WithLabelValues("failed").Inc()
			return "", err
		case !overwrite:
			metrics.ParksImported.WithLabelValues(workflows.ActionSkipped).Inc()
			return workflows.ActionSkipped, nil
		}

		code := domain.DeriveParkCode(p.Name, p.StateCode)
		if _, err := svc.Update(ctx, code, &p); err != nil {
			metrics.ParksImported.WithLabelValues("failed").Inc()
			return "", err
		}
		metrics.ParksImported.WithLabelValues(workflows.ActionUpdated).Inc()
		return workflows.ActionUpdated, nil
	}
}

// temporalImporter starts one ImportParkWorkflow per park and waits for it.
func temporalImporter(c client.Client, taskQueue string, overwrite bool) func(context.Context, domain.Park) (string, error) {
	return func(ctx context.Context, p domain.Park) (string, error) {
		code := domain.DeriveParkCode(p.Name, p.StateCode)
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        workflows.WorkflowID(code),
			TaskQueue: taskQueue,
		}, workflows.ImportParkWorkflow, workflows.ImportParkInput{Park: p, Overwrite: overwrite})
		if err != nil {
			return "", fmt.Errorf("start workflow: %w", err)
		}

		var res workflows.ImportParkResult
		if err := run.Get(ctx, &res); err != nil {
			return "", err
		}
		return res.Action, nil
	}
}
