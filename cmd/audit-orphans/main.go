package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"cricketlake/internal/config"
	"cricketlake/internal/logging"
	"cricketlake/internal/warehouse"
)

type auditor struct {
	athena warehouse.AthenaClient
	opt    warehouse.AthenaRunOptions
	log    *zap.Logger
}

func (a *auditor) handle(ctx context.Context) (*warehouse.OrphanReport, error) {
	rep, err := warehouse.FindOrphans(ctx, a.athena, a.opt)
	if err != nil {
		a.log.Error("orphan audit failed", zap.Error(err))
		return nil, err
	}
	fields := []zap.Field{
		zap.String("query_id", rep.QueryExecutionID),
		zap.Strings("known", rep.Known),
		zap.Strings("unexpected", rep.Unexpected),
		zap.Int64("scanned_bytes", rep.ScannedBytes),
	}
	if len(rep.Unexpected) > 0 {
		a.log.Warn("deliveries without match info", fields...)
	} else {
		a.log.Info("orphan audit clean", fields...)
	}
	return rep, nil
}

func main() {
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	cfg, err := config.Load(ctx, ssm.NewFromConfig(awsCfg))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateAudit(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.DevLogs)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	a := &auditor{
		athena: athena.NewFromConfig(awsCfg),
		opt: warehouse.AthenaRunOptions{
			Database:       cfg.GlueDatabase,
			Workgroup:      cfg.AthenaWorkgroup,
			OutputLocation: cfg.AthenaOutput,
			MaxWait:        cfg.AthenaMaxWait,
		},
		log: logger,
	}

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(a.handle)
		return
	}

	rep, err := a.handle(ctx)
	if err != nil {
		log.Fatalf("audit: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Fatalf("write report: %v", err)
	}
}
