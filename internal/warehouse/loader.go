package warehouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cricketlake/internal/cricsheet"
	"cricketlake/internal/lake"
)

// Batch is everything loaded for one match ID. Match is nil when the source
// had no info file for it.
type Batch struct {
	MatchID    string
	Match      *cricsheet.Match
	Deliveries []cricsheet.Delivery
}

type LoadResult struct {
	MatchKey   string // empty when no match_info row was written
	BallsKey   string // empty when the match had no deliveries
	Deliveries int
}

type Loader struct {
	Store    *lake.Store
	Database string
	Prefix   string // e.g. "warehouse/"
	TempDir  string
	Glue     GlueClient
	Log      *zap.Logger
}

// TablePrefix returns the s3:// prefix every table location lives under.
func (l *Loader) TablePrefix() string {
	return l.Store.URI(lake.EnsureTrailingSlash(l.Prefix))
}

// EnsureTables checks the catalog before any object is written.
func (l *Loader) EnsureTables(ctx context.Context) error {
	created, err := EnsureTables(ctx, l.Glue, l.Database, l.TablePrefix())
	for _, t := range created {
		l.logger().Info("warehouse table created", zap.String("database", l.Database), zap.String("table", t))
	}
	return err
}

// ObjectKey is the single object holding all rows of one match in a table.
// Writing the same match again replaces the object, so loads upsert by match ID.
func (l *Loader) ObjectKey(table, matchID string) string {
	return fmt.Sprintf("%s%s/%s.parquet", lake.EnsureTrailingSlash(l.Prefix), table, matchID)
}

func (l *Loader) Load(ctx context.Context, b Batch) (LoadResult, error) {
	var res LoadResult

	if b.Match != nil {
		if b.Match.MatchID != b.MatchID {
			return res, &LoadError{Table: MatchInfoTable, Reason: fmt.Sprintf("match row id %q differs from batch id %q", b.Match.MatchID, b.MatchID)}
		}
		key := l.ObjectKey(MatchInfoTable, b.MatchID)
		data, err := encodeParquet(l.TempDir, new(cricsheet.Match), []cricsheet.Match{*b.Match})
		if err != nil {
			return res, &LoadError{Table: MatchInfoTable, Key: key, Reason: "encode parquet", Err: err}
		}
		if _, err := l.Store.PutBytes(ctx, key, data, "application/octet-stream"); err != nil {
			return res, &LoadError{Table: MatchInfoTable, Key: key, Reason: "write object", Err: err}
		}
		res.MatchKey = key
	}

	if len(b.Deliveries) > 0 {
		key := l.ObjectKey(BallDataTable, b.MatchID)
		for i := range b.Deliveries {
			if b.Deliveries[i].MatchID != b.MatchID {
				return res, &LoadError{Table: BallDataTable, Key: key, Reason: fmt.Sprintf("delivery %d has match id %q", i, b.Deliveries[i].MatchID)}
			}
		}
		data, err := encodeParquet(l.TempDir, new(cricsheet.Delivery), b.Deliveries)
		if err != nil {
			return res, &LoadError{Table: BallDataTable, Key: key, Reason: "encode parquet", Err: err}
		}
		if _, err := l.Store.PutBytes(ctx, key, data, "application/octet-stream"); err != nil {
			return res, &LoadError{Table: BallDataTable, Key: key, Reason: "write object", Err: err}
		}
		res.BallsKey = key
		res.Deliveries = len(b.Deliveries)
	}

	l.logger().Debug("match loaded",
		zap.String("match_id", b.MatchID),
		zap.String("match_key", res.MatchKey),
		zap.String("balls_key", res.BallsKey),
		zap.Int("deliveries", res.Deliveries),
	)
	return res, nil
}

func (l *Loader) logger() *zap.Logger {
	if l.Log == nil {
		return zap.NewNop()
	}
	return l.Log
}
