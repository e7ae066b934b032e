package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cricketlake/internal/config"
	"cricketlake/internal/cricsheet"
	"cricketlake/internal/lake"
	"cricketlake/internal/manifest"
	"cricketlake/internal/notify"
	"cricketlake/internal/warehouse"
)

// Clients are the AWS services one run talks to. DDB and SNS may be nil when
// the manifest table or the run topic is not configured.
type Clients struct {
	S3   lake.S3Client
	Glue warehouse.GlueClient
	DDB  manifest.DDBClient
	SNS  notify.SNSClient
}

// Pipeline downloads the archive, then parses, normalizes and loads every
// match in match ID order. It is single threaded; one Run is one batch.
type Pipeline struct {
	Fetcher  *cricsheet.Fetcher
	Loader   *warehouse.Loader
	Manifest *manifest.Manifest
	Notifier *notify.Notifier
	Force    bool
	Log      *zap.Logger

	now   func() time.Time
	runID func() string
}

func New(cfg *config.Config, c Clients, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	lakeStore := lake.NewStore(c.S3, cfg.LakeBucket)
	whStore := lakeStore
	if cfg.WarehouseBucket != "" && cfg.WarehouseBucket != cfg.LakeBucket {
		whStore = lake.NewStore(c.S3, cfg.WarehouseBucket)
	}

	return &Pipeline{
		Fetcher: &cricsheet.Fetcher{
			URL:     cfg.SourceURL,
			Client:  &http.Client{Timeout: cfg.HTTPTimeout},
			Stager:  &lake.RawStager{Store: lakeStore, Prefix: cfg.RawPrefix},
			TempDir: cfg.TempDir,
			Log:     log,
		},
		Loader: &warehouse.Loader{
			Store:    whStore,
			Database: cfg.GlueDatabase,
			Prefix:   cfg.WarehousePrefix,
			TempDir:  cfg.TempDir,
			Glue:     c.Glue,
			Log:      log,
		},
		Manifest: manifest.New(c.DDB, cfg.ManifestTable),
		Notifier: notify.New(c.SNS, cfg.RunTopicArn),
		Force:    cfg.ForceReload,
		Log:      log,
	}
}

// Run performs one ingestion. The summary is returned even when the run
// fails, with Err set; it is recorded in the manifest and published either way.
func (p *Pipeline) Run(ctx context.Context) (notify.Summary, error) {
	sum := notify.Summary{
		RunID:  p.newRunID(),
		Source: p.Fetcher.URL,
	}
	if sum.Source == "" {
		sum.Source = cricsheet.DefaultSourceURL
	}
	started := p.clock()
	log := p.logger().With(zap.String("run_id", sum.RunID))
	log.Info("ingest started", zap.String("source", sum.Source), zap.Bool("force_reload", p.Force))

	err := p.run(ctx, log, started, &sum)
	sum.Err = err

	finished := p.clock()
	if rerr := p.Manifest.RecordRun(ctx, manifest.Run{
		RunID:          sum.RunID,
		Source:         sum.Source,
		RawLocation:    sum.RawLocation,
		StartedAt:      started.Format(time.RFC3339),
		FinishedAt:     finished.Format(time.RFC3339),
		Matches:        sum.Matches,
		Loaded:         sum.Loaded,
		Skipped:        sum.Skipped,
		Deliveries:     sum.Deliveries,
		DeliveriesOnly: sum.DeliveriesOnly,
	}); rerr != nil {
		log.Warn("run record not written", zap.Error(rerr))
	}
	if perr := p.Notifier.Publish(ctx, sum); perr != nil {
		log.Warn("run summary not published", zap.Error(perr))
	}

	fields := []zap.Field{
		zap.Int("matches", sum.Matches),
		zap.Int("loaded", sum.Loaded),
		zap.Int("skipped", sum.Skipped),
		zap.Int("deliveries", sum.Deliveries),
		zap.Strings("deliveries_only", sum.DeliveriesOnly),
		zap.Duration("elapsed", finished.Sub(started)),
	}
	if err != nil {
		log.Error("ingest failed", append(fields, zap.Error(err))...)
		return sum, err
	}
	log.Info("ingest finished", fields...)
	return sum, nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, started time.Time, sum *notify.Summary) error {
	if err := p.Loader.EnsureTables(ctx); err != nil {
		return fmt.Errorf("ensure warehouse tables: %w", err)
	}

	done := map[string]manifest.Entry{}
	if !p.Force {
		var err error
		done, err = p.Manifest.Loaded(ctx)
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
	}

	arc, raw, err := p.Fetcher.Fetch(ctx, sum.RunID)
	if err != nil {
		return err
	}
	defer arc.Close()
	sum.RawLocation = raw
	sum.Matches = len(arc.Matches)
	log.Info("archive indexed", zap.Int("matches", sum.Matches), zap.Int("already_loaded", len(done)))

	stamp := started.UTC().Format(time.RFC3339)
	for _, mf := range arc.Matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e, ok := done[mf.MatchID]; ok && covers(e, mf) {
			sum.Skipped++
			continue
		}

		match, deliveries, err := arc.ReadMatch(mf)
		if err != nil {
			return fmt.Errorf("match %s: %w", mf.MatchID, err)
		}

		status := manifest.StatusLoaded
		switch {
		case match == nil:
			status = manifest.StatusDeliveriesOnly
			known := cricsheet.KnownMissingInfo[mf.MatchID]
			log.Warn("match has no info file, loading deliveries only",
				zap.String("match_id", mf.MatchID),
				zap.String("file", mf.BallsFile),
				zap.Bool("known_exception", known),
			)
			sum.DeliveriesOnly = append(sum.DeliveriesOnly, mf.MatchID)
			if !known {
				sum.UnknownMissing = append(sum.UnknownMissing, mf.MatchID)
			}
		case len(deliveries) == 0:
			status = manifest.StatusInfoOnly
			log.Warn("match has no deliveries", zap.String("match_id", mf.MatchID), zap.String("file", mf.InfoFile))
		}

		if match != nil {
			match.LoadedAt, match.RunID = stamp, sum.RunID
		}
		for i := range deliveries {
			deliveries[i].LoadedAt, deliveries[i].RunID = stamp, sum.RunID
		}

		res, err := p.Loader.Load(ctx, warehouse.Batch{MatchID: mf.MatchID, Match: match, Deliveries: deliveries})
		if err != nil {
			return fmt.Errorf("match %s: %w", mf.MatchID, err)
		}

		if err := p.Manifest.Record(ctx, manifest.Entry{
			MatchID:    mf.MatchID,
			Status:     status,
			HasInfo:    match != nil,
			HasBalls:   mf.HasBalls(),
			Deliveries: res.Deliveries,
			MatchKey:   res.MatchKey,
			BallsKey:   res.BallsKey,
			RunID:      sum.RunID,
			LoadedAt:   stamp,
		}); err != nil {
			return fmt.Errorf("record match %s: %w", mf.MatchID, err)
		}

		sum.Loaded++
		sum.Deliveries += res.Deliveries
	}
	return nil
}

// covers reports whether a checkpoint already holds everything the archive
// has for the match. A match first seen without its info file is loaded again
// once the info file shows up.
func covers(e manifest.Entry, mf cricsheet.MatchFiles) bool {
	if mf.HasInfo() && !e.HasInfo {
		return false
	}
	if mf.HasBalls() && !e.HasBalls {
		return false
	}
	return true
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now().UTC()
}

func (p *Pipeline) newRunID() string {
	if p.runID != nil {
		return p.runID()
	}
	return uuid.NewString()
}
