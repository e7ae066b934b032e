package ingest

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/klauspost/compress/zip"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

type fakeS3 struct {
	objects map[string][]byte // bucket/key
	puts    int
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) keysWithPrefix(p string) []string {
	var out []string
	for k := range f.objects {
		if strings.HasPrefix(k, p) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

type fakeGlue struct {
	tables map[string]*gluetypes.Table
}

func (f *fakeGlue) GetTable(ctx context.Context, in *glue.GetTableInput, _ ...func(*glue.Options)) (*glue.GetTableOutput, error) {
	t, ok := f.tables[aws.ToString(in.Name)]
	if !ok {
		return nil, &gluetypes.EntityNotFoundException{Message: aws.String("not found")}
	}
	return &glue.GetTableOutput{Table: t}, nil
}

func (f *fakeGlue) CreateTable(ctx context.Context, in *glue.CreateTableInput, _ ...func(*glue.Options)) (*glue.CreateTableOutput, error) {
	if f.tables == nil {
		f.tables = map[string]*gluetypes.Table{}
	}
	ti := in.TableInput
	f.tables[aws.ToString(ti.Name)] = &gluetypes.Table{
		Name:              ti.Name,
		DatabaseName:      in.DatabaseName,
		StorageDescriptor: ti.StorageDescriptor,
	}
	return &glue.CreateTableOutput{}, nil
}

// fakeDDB returns every matching item in a single scan page.
type fakeDDB struct {
	items map[string]map[string]ddbtypes.AttributeValue
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
	prefix := in.ExpressionAttributeValues[":p"].(*ddbtypes.AttributeValueMemberS).Value
	out := &dynamodb.ScanOutput{}
	for k, item := range f.items {
		if strings.HasPrefix(k, prefix) {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (f *fakeDDB) status(pk string) string {
	item, ok := f.items[pk]
	if !ok {
		return ""
	}
	return item["Status"].(*ddbtypes.AttributeValueMemberS).Value
}

type fakeSNS struct {
	subjects []string
	messages []string
}

func (f *fakeSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.subjects = append(f.subjects, aws.ToString(in.Subject))
	f.messages = append(f.messages, aws.ToString(in.Message))
	return &sns.PublishOutput{}, nil
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func readParquet[T any](t *testing.T, data []byte) []T {
	t.Helper()
	p := filepath.Join(t.TempDir(), "read.parquet")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	fr, err := local.NewLocalFileReader(p)
	if err != nil {
		t.Fatalf("parquet file reader: %v", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), 1)
	if err != nil {
		t.Fatalf("parquet reader: %v", err)
	}
	defer pr.ReadStop()

	rows := make([]T, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("parquet read: %v", err)
	}
	return rows
}
