package warehouse

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    int
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Key)] = b
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

type fakeGlue struct {
	tables  map[string]*gluetypes.Table
	created []string
}

func (f *fakeGlue) GetTable(ctx context.Context, in *glue.GetTableInput, _ ...func(*glue.Options)) (*glue.GetTableOutput, error) {
	t, ok := f.tables[aws.ToString(in.Name)]
	if !ok {
		return nil, &gluetypes.EntityNotFoundException{Message: aws.String("table not found")}
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
		PartitionKeys:     ti.PartitionKeys,
	}
	f.created = append(f.created, aws.ToString(ti.Name))
	return &glue.CreateTableOutput{}, nil
}

// readParquet decodes rows written by encodeParquet.
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
