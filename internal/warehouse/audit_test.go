package warehouse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type fakeAthena struct {
	states []athenatypes.QueryExecutionState
	reason string
	ids    []string
	sql    string
	polls  int
}

func (f *fakeAthena) StartQueryExecution(ctx context.Context, in *athena.StartQueryExecutionInput, _ ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	f.sql = aws.ToString(in.QueryString)
	return &athena.StartQueryExecutionOutput{QueryExecutionId: aws.String("qid-1")}, nil
}

func (f *fakeAthena) GetQueryExecution(ctx context.Context, in *athena.GetQueryExecutionInput, _ ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	st := f.states[len(f.states)-1]
	if f.polls < len(f.states) {
		st = f.states[f.polls]
	}
	f.polls++
	return &athena.GetQueryExecutionOutput{QueryExecution: &athenatypes.QueryExecution{
		Status:     &athenatypes.QueryExecutionStatus{State: st, StateChangeReason: aws.String(f.reason)},
		Statistics: &athenatypes.QueryExecutionStatistics{DataScannedInBytes: aws.Int64(2048)},
	}}, nil
}

func (f *fakeAthena) GetQueryResults(ctx context.Context, in *athena.GetQueryResultsInput, _ ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error) {
	rows := []athenatypes.Row{{Data: []athenatypes.Datum{{VarCharValue: aws.String("match_id")}}}}
	for _, id := range f.ids {
		rows = append(rows, athenatypes.Row{Data: []athenatypes.Datum{{VarCharValue: aws.String(id)}}})
	}
	return &athena.GetQueryResultsOutput{ResultSet: &athenatypes.ResultSet{
		ResultSetMetadata: &athenatypes.ResultSetMetadata{ColumnInfo: []athenatypes.ColumnInfo{{Name: aws.String("match_id")}}},
		Rows:              rows,
	}}, nil
}

func testAthenaOptions() AthenaRunOptions {
	return AthenaRunOptions{
		Database:       "cricsheet",
		OutputLocation: "s3://lake/athena-results/",
		PollInterval:   time.Millisecond,
		MaxWait:        time.Second,
	}
}

func TestFindOrphans(t *testing.T) {
	fa := &fakeAthena{
		states: []athenatypes.QueryExecutionState{athenatypes.QueryExecutionStateRunning, athenatypes.QueryExecutionStateSucceeded},
		ids:    []string{"1182643", "1156654", "wi_42"},
	}

	rep, err := FindOrphans(context.Background(), fa, testAthenaOptions())
	if err != nil {
		t.Fatalf("FindOrphans failed: %v", err)
	}
	if strings.Join(rep.Known, ",") != "1156654,1182643" {
		t.Errorf("known: got %v", rep.Known)
	}
	if strings.Join(rep.Unexpected, ",") != "wi_42" {
		t.Errorf("unexpected: got %v", rep.Unexpected)
	}
	if rep.ScannedBytes != 2048 {
		t.Errorf("scanned bytes: got %d", rep.ScannedBytes)
	}
	if !strings.Contains(fa.sql, "LEFT JOIN match_info") {
		t.Errorf("unexpected sql: %s", fa.sql)
	}
}

func TestRunAthenaQueryFailed(t *testing.T) {
	fa := &fakeAthena{
		states: []athenatypes.QueryExecutionState{athenatypes.QueryExecutionStateFailed},
		reason: "TABLE_NOT_FOUND",
	}

	_, err := RunAthenaQuery(context.Background(), fa, "SELECT 1", testAthenaOptions())
	var ae *AthenaError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AthenaError, got %v", err)
	}
	if ae.State != "FAILED" || ae.Reason != "TABLE_NOT_FOUND" || ae.QueryExecutionID != "qid-1" {
		t.Errorf("unexpected error: %+v", ae)
	}
}

func TestRunAthenaQueryOptions(t *testing.T) {
	fa := &fakeAthena{states: []athenatypes.QueryExecutionState{athenatypes.QueryExecutionStateSucceeded}}

	if _, err := RunAthenaQuery(context.Background(), fa, "SELECT 1", AthenaRunOptions{OutputLocation: "s3://x/"}); err == nil {
		t.Error("expected error for missing database")
	}
	if _, err := RunAthenaQuery(context.Background(), fa, "SELECT 1", AthenaRunOptions{Database: "d", OutputLocation: "/tmp"}); err == nil {
		t.Error("expected error for non-s3 output location")
	}
}
