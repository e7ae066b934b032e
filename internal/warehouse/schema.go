package warehouse

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"

	"cricketlake/internal/cricsheet"
)

const (
	MatchInfoTable = "match_info"
	BallDataTable  = "ball_data"
)

type GlueClient interface {
	GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
	CreateTable(ctx context.Context, params *glue.CreateTableInput, optFns ...func(*glue.Options)) (*glue.CreateTableOutput, error)
}

type Column struct {
	Name string
	Type string
}

type TableSchema struct {
	Database   string
	Table      string
	Location   string
	Columns    []Column
	Partitions []Column
}

// Tables lists the warehouse tables with the columns the loader writes.
func Tables() map[string][]Column {
	return map[string][]Column{
		MatchInfoTable: columnsOf(cricsheet.Match{}),
		BallDataTable:  columnsOf(cricsheet.Delivery{}),
	}
}

// columnsOf derives catalog columns from the parquet tags of a row type.
func columnsOf(row any) []Column {
	t := reflect.TypeOf(row)
	cols := make([]Column, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("parquet")
		if tag == "" {
			continue
		}
		var name, ptype string
		for _, part := range strings.Split(tag, ",") {
			k, v, _ := strings.Cut(strings.TrimSpace(part), "=")
			switch k {
			case "name":
				name = v
			case "type":
				ptype = v
			}
		}
		cols = append(cols, Column{Name: name, Type: glueType(ptype)})
	}
	return cols
}

func glueType(parquetType string) string {
	switch parquetType {
	case "INT32":
		return "int"
	case "INT64":
		return "bigint"
	case "BOOLEAN":
		return "boolean"
	case "DOUBLE":
		return "double"
	default:
		return "string"
	}
}

func LoadTableSchema(ctx context.Context, c GlueClient, database, table string) (*TableSchema, error) {
	out, err := c.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: aws.String(database),
		Name:         aws.String(table),
	})
	if err != nil {
		return nil, fmt.Errorf("glue GetTable %s.%s: %w", database, table, err)
	}

	ti := out.Table
	schema := &TableSchema{
		Database: database,
		Table:    aws.ToString(ti.Name),
	}

	if sd := ti.StorageDescriptor; sd != nil {
		schema.Location = aws.ToString(sd.Location)
		for _, col := range sd.Columns {
			schema.Columns = append(schema.Columns, glueColumn(col))
		}
	}
	for _, p := range ti.PartitionKeys {
		schema.Partitions = append(schema.Partitions, glueColumn(p))
	}
	return schema, nil
}

func glueColumn(c gluetypes.Column) Column {
	return Column{Name: aws.ToString(c.Name), Type: NormalizeGlueType(aws.ToString(c.Type))}
}

func NormalizeGlueType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "integer" {
		return "int"
	}
	return t
}

// SchemaDiff lists the differences between the catalog columns and the
// expected ones. An empty result means the table matches.
func SchemaDiff(have *TableSchema, want []Column) []string {
	var diffs []string
	got := make(map[string]string, len(have.Columns))
	for _, c := range have.Columns {
		got[c.Name] = c.Type
	}
	expected := make(map[string]bool, len(want))
	for _, c := range want {
		expected[c.Name] = true
		typ, ok := got[c.Name]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("missing column %s", c.Name))
		case typ != c.Type:
			diffs = append(diffs, fmt.Sprintf("column %s is %s, want %s", c.Name, typ, c.Type))
		}
	}
	for _, c := range have.Columns {
		if !expected[c.Name] {
			diffs = append(diffs, fmt.Sprintf("unexpected column %s", c.Name))
		}
	}
	if len(have.Partitions) > 0 {
		diffs = append(diffs, "table must not be partitioned")
	}
	sort.Strings(diffs)
	return diffs
}

// EnsureTables creates the warehouse tables when missing and fails with a
// LoadError when an existing table does not carry the expected columns.
func EnsureTables(ctx context.Context, c GlueClient, database, locationPrefix string) ([]string, error) {
	var created []string

	names := []string{MatchInfoTable, BallDataTable}
	tables := Tables()
	for _, name := range names {
		want := tables[name]

		schema, err := LoadTableSchema(ctx, c, database, name)
		var nf *gluetypes.EntityNotFoundException
		switch {
		case errors.As(err, &nf):
			if err := createTable(ctx, c, database, name, locationPrefix+name+"/", want); err != nil {
				return created, &LoadError{Table: name, Reason: "create table", Err: err}
			}
			created = append(created, name)
			continue
		case err != nil:
			return created, &LoadError{Table: name, Reason: "read schema", Err: err}
		}

		if diffs := SchemaDiff(schema, want); len(diffs) > 0 {
			return created, &LoadError{Table: name, Reason: "schema mismatch: " + strings.Join(diffs, "; ")}
		}
	}
	return created, nil
}

func createTable(ctx context.Context, c GlueClient, database, table, location string, cols []Column) error {
	gcols := make([]gluetypes.Column, 0, len(cols))
	for _, col := range cols {
		gcols = append(gcols, gluetypes.Column{Name: aws.String(col.Name), Type: aws.String(col.Type)})
	}

	_, err := c.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(database),
		TableInput: &gluetypes.TableInput{
			Name:      aws.String(table),
			TableType: aws.String("EXTERNAL_TABLE"),
			Parameters: map[string]string{
				"classification":      "parquet",
				"parquet.compression": "SNAPPY",
			},
			StorageDescriptor: &gluetypes.StorageDescriptor{
				Columns:      gcols,
				Location:     aws.String(location),
				InputFormat:  aws.String("org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat"),
				OutputFormat: aws.String("org.apache.hadoop.hive.ql.io.parquet.MapredParquetOutputFormat"),
				SerdeInfo: &gluetypes.SerDeInfo{
					SerializationLibrary: aws.String("org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe"),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("glue CreateTable %s.%s: %w", database, table, err)
	}
	return nil
}
