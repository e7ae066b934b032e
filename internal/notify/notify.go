package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SNSClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Summary is the part of a finished run worth telling operators about.
type Summary struct {
	RunID          string
	Source         string
	RawLocation    string
	Matches        int
	Loaded         int
	Skipped        int
	Deliveries     int
	DeliveriesOnly []string
	UnknownMissing []string
	Err            error
}

type Notifier struct {
	sns      SNSClient
	topicArn string
}

func New(c SNSClient, topicArn string) *Notifier {
	return &Notifier{sns: c, topicArn: strings.TrimSpace(topicArn)}
}

// Publish sends the run summary. Without a topic it does nothing.
func (n *Notifier) Publish(ctx context.Context, s Summary) error {
	if n == nil || n.sns == nil || n.topicArn == "" {
		return nil
	}
	subject, body := BuildMessage(s)
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

func BuildMessage(s Summary) (subject string, body string) {
	status := "succeeded"
	if s.Err != nil {
		status = "FAILED"
	}
	subject = fmt.Sprintf("Cricsheet ingest %s (%d loaded)", status, s.Loaded)

	lines := []string{
		"Cricsheet ingestion run",
		"",
		fmt.Sprintf("Run: %s", s.RunID),
		fmt.Sprintf("Source: %s", s.Source),
	}
	if s.RawLocation != "" {
		lines = append(lines, fmt.Sprintf("Raw archive: %s", s.RawLocation))
	}
	lines = append(lines,
		fmt.Sprintf("Matches in archive: %d", s.Matches),
		fmt.Sprintf("Loaded: %d", s.Loaded),
		fmt.Sprintf("Skipped (already loaded): %d", s.Skipped),
		fmt.Sprintf("Deliveries written: %d", s.Deliveries),
	)
	if len(s.DeliveriesOnly) > 0 {
		lines = append(lines, fmt.Sprintf("Missing info file: %s", strings.Join(s.DeliveriesOnly, ", ")))
	}
	if len(s.UnknownMissing) > 0 {
		lines = append(lines, fmt.Sprintf("Missing info file (not a documented exception): %s", strings.Join(s.UnknownMissing, ", ")))
	}
	if s.Err != nil {
		lines = append(lines, "", fmt.Sprintf("Error: %v", s.Err))
	}
	return subject, strings.Join(lines, "\n")
}
