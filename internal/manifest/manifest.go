package manifest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	StatusLoaded         = "loaded"
	StatusDeliveriesOnly = "deliveries_only"
	StatusInfoOnly       = "info_only"

	matchPrefix = "MATCH#"
	runPrefix   = "RUN#"
)

type DDBClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Entry is the checkpoint written after a match has been loaded.
type Entry struct {
	PK         string `dynamodbav:"PK"`
	MatchID    string `dynamodbav:"MatchId"`
	Status     string `dynamodbav:"Status"`
	HasInfo    bool   `dynamodbav:"HasInfo"`
	HasBalls   bool   `dynamodbav:"HasBalls"` // ball file present, even if header only
	Deliveries int    `dynamodbav:"Deliveries"`
	MatchKey   string `dynamodbav:"MatchKey,omitempty"`
	BallsKey   string `dynamodbav:"BallsKey,omitempty"`
	RunID      string `dynamodbav:"RunId"`
	LoadedAt   string `dynamodbav:"LoadedAt"`
}

// Run is the summary record of one ingestion run.
type Run struct {
	PK             string   `dynamodbav:"PK"`
	RunID          string   `dynamodbav:"RunId"`
	Source         string   `dynamodbav:"Source"`
	RawLocation    string   `dynamodbav:"RawLocation,omitempty"`
	StartedAt      string   `dynamodbav:"StartedAt"`
	FinishedAt     string   `dynamodbav:"FinishedAt"`
	Matches        int      `dynamodbav:"Matches"`
	Loaded         int      `dynamodbav:"Loaded"`
	Skipped        int      `dynamodbav:"Skipped"`
	Deliveries     int      `dynamodbav:"Deliveries"`
	DeliveriesOnly []string `dynamodbav:"DeliveriesOnly,omitempty"`
}

// Manifest stores checkpoints in one DynamoDB table keyed by PK. A Manifest
// with an empty table name records nothing and reports nothing as loaded.
type Manifest struct {
	ddb   DDBClient
	table string
}

func New(c DDBClient, table string) *Manifest {
	return &Manifest{ddb: c, table: strings.TrimSpace(table)}
}

func (m *Manifest) Enabled() bool { return m != nil && m.table != "" && m.ddb != nil }

func MatchPK(matchID string) string { return matchPrefix + matchID }
func RunPK(runID string) string     { return runPrefix + runID }

// Loaded scans every match checkpoint and returns them keyed by match ID.
func (m *Manifest) Loaded(ctx context.Context) (map[string]Entry, error) {
	out := map[string]Entry{}
	if !m.Enabled() {
		return out, nil
	}

	var startKey map[string]ddbtypes.AttributeValue
	for {
		res, err := m.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(m.table),
			ExclusiveStartKey: startKey,
			FilterExpression:  aws.String("begins_with(PK, :p)"),
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":p": &ddbtypes.AttributeValueMemberS{Value: matchPrefix},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan %s: %w", m.table, err)
		}

		var page []Entry
		if err := attributevalue.UnmarshalListOfMaps(res.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal manifest entries: %w", err)
		}
		for _, e := range page {
			if e.MatchID != "" {
				out[e.MatchID] = e
			}
		}

		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		startKey = res.LastEvaluatedKey
	}
	return out, nil
}

func (m *Manifest) Record(ctx context.Context, e Entry) error {
	if !m.Enabled() {
		return nil
	}
	e.PK = MatchPK(e.MatchID)
	if e.LoadedAt == "" {
		e.LoadedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return m.put(ctx, e)
}

func (m *Manifest) RecordRun(ctx context.Context, r Run) error {
	if !m.Enabled() {
		return nil
	}
	r.PK = RunPK(r.RunID)
	return m.put(ctx, r)
}

func (m *Manifest) put(ctx context.Context, v any) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal manifest item: %w", err)
	}
	if _, err := m.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb put %s: %w", m.table, err)
	}
	return nil
}
