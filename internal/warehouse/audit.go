package warehouse

import (
	"context"
	"fmt"
	"sort"

	"cricketlake/internal/cricsheet"
)

// OrphanReport lists ball_data match IDs that have no match_info row.
type OrphanReport struct {
	QueryExecutionID string   `json:"query_id"`
	Known            []string `json:"known"`
	Unexpected       []string `json:"unexpected"`
	ScannedBytes     int64    `json:"scanned_bytes"`
}

func OrphanQuery() string {
	return fmt.Sprintf(`SELECT DISTINCT b.match_id
FROM %s b
LEFT JOIN %s m ON b.match_id = m.match_id
WHERE m.match_id IS NULL
ORDER BY b.match_id`, BallDataTable, MatchInfoTable)
}

// FindOrphans runs the orphan query and splits the result into the documented
// upstream exceptions and everything else.
func FindOrphans(ctx context.Context, c AthenaClient, opt AthenaRunOptions) (*OrphanReport, error) {
	res, err := RunAthenaQuery(ctx, c, OrphanQuery(), opt)
	if err != nil {
		return nil, err
	}

	rep := &OrphanReport{
		QueryExecutionID: res.QueryExecutionID,
		ScannedBytes:     res.ScannedBytes,
		Known:            []string{},
		Unexpected:       []string{},
	}
	for _, row := range res.Rows {
		id := row["match_id"]
		if id == "" {
			continue
		}
		if cricsheet.KnownMissingInfo[id] {
			rep.Known = append(rep.Known, id)
		} else {
			rep.Unexpected = append(rep.Unexpected, id)
		}
	}
	sort.Strings(rep.Known)
	sort.Strings(rep.Unexpected)
	return rep, nil
}
