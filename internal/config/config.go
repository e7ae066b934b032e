package config

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the ingestion configuration. Keys map one-to-one onto
// upper-cased environment variables (source_url -> SOURCE_URL).
type Config struct {
	SourceURL       string        `mapstructure:"source_url"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	TempDir         string        `mapstructure:"temp_dir"`
	LakeBucket      string        `mapstructure:"lake_bucket"`
	RawPrefix       string        `mapstructure:"raw_prefix"`
	WarehouseBucket string        `mapstructure:"warehouse_bucket"`
	WarehousePrefix string        `mapstructure:"warehouse_prefix"`
	GlueDatabase    string        `mapstructure:"glue_database"`
	ManifestTable   string        `mapstructure:"manifest_table"`
	ForceReload     bool          `mapstructure:"force_reload"`
	RunTopicArn     string        `mapstructure:"run_topic_arn"`
	AthenaWorkgroup string        `mapstructure:"athena_workgroup"`
	AthenaOutput    string        `mapstructure:"athena_output"`
	AthenaMaxWait   time.Duration `mapstructure:"athena_max_wait"`
	LogLevel        string        `mapstructure:"log_level"`
	DevLogs         bool          `mapstructure:"dev_logs"`
}

var keys = []string{
	"source_url", "http_timeout", "temp_dir",
	"lake_bucket", "raw_prefix", "warehouse_bucket", "warehouse_prefix",
	"glue_database", "manifest_table", "force_reload", "run_topic_arn",
	"athena_workgroup", "athena_output", "athena_max_wait",
	"log_level", "dev_logs",
}

type SSMClient interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_url", "https://cricsheet.org/downloads/all_csv2.zip")
	v.SetDefault("http_timeout", 5*time.Minute)
	v.SetDefault("raw_prefix", "raw/cricsheet/")
	v.SetDefault("warehouse_prefix", "warehouse/")
	v.SetDefault("glue_database", "cricsheet")
	v.SetDefault("athena_workgroup", "primary")
	v.SetDefault("athena_max_wait", 60*time.Second)
	v.SetDefault("log_level", "info")
	for _, k := range keys {
		if !v.IsSet(k) {
			v.SetDefault(k, "")
		}
	}
}

// Load resolves configuration from, lowest priority first: defaults, the
// optional CONFIG_FILE, the environment (a local .env is loaded if present),
// and parameters under CONFIG_SSM_PATH when ps is non-nil.
func Load(ctx context.Context, ps SSMClient) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("config_file")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	if p := strings.TrimSpace(v.GetString("config_ssm_path")); p != "" && ps != nil {
		params, err := FetchParameters(ctx, ps, p)
		if err != nil {
			return nil, err
		}
		for k, val := range params {
			v.Set(k, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.WarehouseBucket == "" {
		cfg.WarehouseBucket = cfg.LakeBucket
	}
	return &cfg, nil
}

// FetchParameters reads every parameter under path and keys it by the
// lower-cased last path segment, e.g. /cricsheet/prod/LAKE_BUCKET -> lake_bucket.
func FetchParameters(ctx context.Context, c SSMClient, p string) (map[string]string, error) {
	out := map[string]string{}
	var next *string
	for {
		res, err := c.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:           aws.String(p),
			Recursive:      aws.Bool(true),
			WithDecryption: aws.Bool(true),
			NextToken:      next,
		})
		if err != nil {
			return nil, fmt.Errorf("ssm GetParametersByPath %s: %w", p, err)
		}
		for _, prm := range res.Parameters {
			k := strings.ToLower(path.Base(aws.ToString(prm.Name)))
			out[k] = aws.ToString(prm.Value)
		}
		if aws.ToString(res.NextToken) == "" {
			break
		}
		next = res.NextToken
	}
	return out, nil
}

// Validate checks the keys the ingestion run cannot do without.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.LakeBucket) == "" {
		missing = append(missing, "LAKE_BUCKET")
	}
	if strings.TrimSpace(c.GlueDatabase) == "" {
		missing = append(missing, "GLUE_DATABASE")
	}
	if strings.TrimSpace(c.SourceURL) == "" {
		missing = append(missing, "SOURCE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing config: %s", strings.Join(missing, ", "))
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// ValidateAudit checks the keys the orphan audit needs.
func (c *Config) ValidateAudit() error {
	if strings.TrimSpace(c.GlueDatabase) == "" || strings.TrimSpace(c.AthenaOutput) == "" {
		return fmt.Errorf("missing config: GLUE_DATABASE and ATHENA_OUTPUT are required")
	}
	if !strings.HasPrefix(c.AthenaOutput, "s3://") {
		return fmt.Errorf("ATHENA_OUTPUT must start with s3://")
	}
	return nil
}
