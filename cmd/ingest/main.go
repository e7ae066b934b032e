package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"cricketlake/internal/config"
	"cricketlake/internal/ingest"
	"cricketlake/internal/logging"
)

func main() {
	force := flag.Bool("force", false, "reload matches already recorded in the manifest")
	flag.Parse()

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	cfg, err := config.Load(ctx, ssm.NewFromConfig(awsCfg))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *force {
		cfg.ForceReload = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.DevLogs)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	p := ingest.New(cfg, ingest.Clients{
		S3:   s3.NewFromConfig(awsCfg),
		Glue: glue.NewFromConfig(awsCfg),
		DDB:  dynamodb.NewFromConfig(awsCfg),
		SNS:  sns.NewFromConfig(awsCfg),
	}, logger)

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(p.Handle)
		return
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := p.Run(ctx); err != nil {
		logger.Error("ingest run failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
