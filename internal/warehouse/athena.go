package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type AthenaClient interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type AthenaRunOptions struct {
	Database       string
	Workgroup      string
	OutputLocation string // s3://.../athena-results/
	MaxWait        time.Duration
	PollInterval   time.Duration
	MaxResultRows  int
}

// AthenaResult holds rows as text; the warehouse columns read here are all strings.
type AthenaResult struct {
	QueryExecutionID string
	Columns          []string
	Rows             []map[string]string
	ScannedBytes     int64
	ExecutionMs      int64
}

func RunAthenaQuery(ctx context.Context, c AthenaClient, sql string, opt AthenaRunOptions) (*AthenaResult, error) {
	if strings.TrimSpace(opt.Database) == "" {
		return nil, fmt.Errorf("missing athena database")
	}
	if strings.TrimSpace(opt.Workgroup) == "" {
		opt.Workgroup = "primary"
	}
	if strings.TrimSpace(opt.OutputLocation) == "" {
		return nil, fmt.Errorf("missing athena output location")
	}
	if !strings.HasPrefix(opt.OutputLocation, "s3://") {
		return nil, fmt.Errorf("athena output location must start with s3://")
	}
	if opt.MaxWait == 0 {
		opt.MaxWait = 60 * time.Second
	}
	if opt.PollInterval == 0 {
		opt.PollInterval = 2 * time.Second
	}
	if opt.MaxResultRows == 0 {
		opt.MaxResultRows = 10000
	}

	startOut, err := c.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(sql),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(opt.Database),
		},
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(opt.OutputLocation),
		},
		WorkGroup: aws.String(opt.Workgroup),
	})
	if err != nil {
		return nil, fmt.Errorf("athena StartQueryExecution: %w", err)
	}
	qid := aws.ToString(startOut.QueryExecutionId)

	exec, err := waitForQuery(ctx, c, qid, opt)
	if err != nil {
		return nil, err
	}

	var (
		nextToken *string
		allRows   []athenatypes.Row
		colInfo   []athenatypes.ColumnInfo
	)
	for {
		resOut, err := c.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: aws.String(qid),
			NextToken:        nextToken,
			MaxResults:       aws.Int32(1000),
		})
		if err != nil {
			return nil, fmt.Errorf("athena GetQueryResults: %w", err)
		}
		if resOut.ResultSet == nil {
			break
		}
		if colInfo == nil && resOut.ResultSet.ResultSetMetadata != nil {
			colInfo = resOut.ResultSet.ResultSetMetadata.ColumnInfo
		}
		allRows = append(allRows, resOut.ResultSet.Rows...)
		if aws.ToString(resOut.NextToken) == "" {
			break
		}
		nextToken = resOut.NextToken

		if len(allRows) > opt.MaxResultRows+1 {
			break
		}
	}

	cols := make([]string, 0, len(colInfo))
	for _, ci := range colInfo {
		cols = append(cols, aws.ToString(ci.Name))
	}

	// First row is the header row.
	outRows := make([]map[string]string, 0, len(allRows))
	for i, r := range allRows {
		if i == 0 {
			continue
		}
		if len(outRows) >= opt.MaxResultRows {
			break
		}
		m := make(map[string]string, len(cols))
		for ci, d := range r.Data {
			if ci >= len(cols) {
				continue
			}
			m[cols[ci]] = aws.ToString(d.VarCharValue)
		}
		outRows = append(outRows, m)
	}

	res := &AthenaResult{QueryExecutionID: qid, Columns: cols, Rows: outRows}
	if exec != nil && exec.Statistics != nil {
		res.ScannedBytes = aws.ToInt64(exec.Statistics.DataScannedInBytes)
		res.ExecutionMs = aws.ToInt64(exec.Statistics.EngineExecutionTimeInMillis)
	}
	return res, nil
}

func waitForQuery(ctx context.Context, c AthenaClient, qid string, opt AthenaRunOptions) (*athenatypes.QueryExecution, error) {
	deadline := time.Now().Add(opt.MaxWait)
	for {
		if time.Now().After(deadline) {
			return nil, &AthenaError{State: "TIMEOUT", Reason: "query timed out", QueryExecutionID: qid}
		}
		getOut, err := c.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(qid),
		})
		if err != nil {
			return nil, fmt.Errorf("athena GetQueryExecution: %w", err)
		}
		exec := getOut.QueryExecution
		if exec == nil || exec.Status == nil {
			return nil, &AthenaError{State: "UNKNOWN", Reason: "missing query status", QueryExecutionID: qid}
		}

		switch exec.Status.State {
		case athenatypes.QueryExecutionStateSucceeded:
			return exec, nil
		case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
			return nil, &AthenaError{State: string(exec.Status.State), Reason: aws.ToString(exec.Status.StateChangeReason), QueryExecutionID: qid}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opt.PollInterval):
		}
	}
}
