package manifest

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDDB keeps items in PK order and pages scans two items at a time.
type fakeDDB struct {
	items map[string]map[string]ddbtypes.AttributeValue
	scans int
}

func (f *fakeDDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.items == nil {
		f.items = map[string]map[string]ddbtypes.AttributeValue{}
	}
	pk := in.Item["PK"].(*ddbtypes.AttributeValueMemberS).Value
	f.items[pk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans++
	prefix := in.ExpressionAttributeValues[":p"].(*ddbtypes.AttributeValueMemberS).Value

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		last := in.ExclusiveStartKey["PK"].(*ddbtypes.AttributeValueMemberS).Value
		for i, k := range keys {
			if k == last {
				start = i + 1
			}
		}
	}
	end := start + 2
	if end > len(keys) {
		end = len(keys)
	}

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]ddbtypes.AttributeValue{"PK": &ddbtypes.AttributeValueMemberS{Value: keys[end-1]}}
	}
	return out, nil
}

func TestManifestRecordAndLoaded(t *testing.T) {
	ddb := &fakeDDB{}
	m := New(ddb, "cricsheet-manifest")
	ctx := context.Background()

	for _, e := range []Entry{
		{MatchID: "1234", Status: StatusLoaded, HasInfo: true, HasBalls: true, Deliveries: 240, RunID: "r1"},
		{MatchID: "wi_999", Status: StatusLoaded, HasInfo: true, HasBalls: true, Deliveries: 12, RunID: "r1"},
		{MatchID: "1156654", Status: StatusDeliveriesOnly, HasBalls: true, Deliveries: 250, RunID: "r1"},
	} {
		if err := m.Record(ctx, e); err != nil {
			t.Fatalf("Record %s failed: %v", e.MatchID, err)
		}
	}
	if err := m.RecordRun(ctx, Run{RunID: "r1", Matches: 3, Loaded: 3}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	loaded, err := m.Loaded(ctx)
	if err != nil {
		t.Fatalf("Loaded failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("got %d entries, want 3: %v", len(loaded), loaded)
	}
	if ddb.scans != 2 {
		t.Errorf("expected paginated scan over 2 pages, got %d", ddb.scans)
	}

	e := loaded["1156654"]
	if e.Status != StatusDeliveriesOnly || e.HasInfo || !e.HasBalls || e.Deliveries != 250 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.PK != "MATCH#1156654" || e.LoadedAt == "" {
		t.Errorf("PK/LoadedAt not set: %+v", e)
	}
	if _, ok := ddb.items["RUN#r1"]; !ok {
		t.Error("run record missing")
	}
}

func TestManifestDisabled(t *testing.T) {
	m := New(nil, "  ")
	if m.Enabled() {
		t.Fatal("manifest without table should be disabled")
	}
	loaded, err := m.Loaded(context.Background())
	if err != nil || len(loaded) != 0 {
		t.Errorf("disabled Loaded: got %v, %v", loaded, err)
	}
	if err := m.Record(context.Background(), Entry{MatchID: "1"}); err != nil {
		t.Errorf("disabled Record: %v", err)
	}
}
