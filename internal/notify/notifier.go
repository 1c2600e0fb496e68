// internal/notify/notifier.go

// Package notify tells the reviewing team when a candidate's report is
// ready. Delivery is best-effort: a failed notification never fails the
// pipeline run that produced the report.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// Interfaces over the AWS clients so tests can mock them.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Result reports what the notifier managed to deliver.
type Result struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	SentAt         string `json:"sentAt"`
}

type Notifier struct {
	config    config.NotificationConfig
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func NewNotifier(cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Notifier{
		config:    cfg,
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
		logger:    log.WithFields(map[string]interface{}{"component": "report-notifier"}),
	}, nil
}

// NewNotifierWithClients wires explicit clients; used by tests.
func NewNotifierWithClients(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "report-notifier"}),
	}
}

// ReportReady notifies the admin channel that a submission's report has
// been generated.
func (n *Notifier) ReportReady(ctx context.Context, submission *models.Submission, report *models.AssessmentReport) Result {
	sentAt := time.Now().UTC().Format(time.RFC3339)
	notificationID := uuid.New().String()

	subject := fmt.Sprintf("Assessment report ready: %s", submission.CandidateName)
	body := fmt.Sprintf(
		"The assessment report for %s (%s test) has been generated.\nOverall: %.1f/10 (%s).\nSubmission: %s",
		submission.CandidateName,
		submission.TestType,
		report.Summary.OverallScore,
		report.Summary.OverallBand,
		submission.ID,
	)

	emailSent := false
	smsSent := false

	if n.config.Email.Enabled && n.config.Email.AdminEmail != "" {
		if err := n.sendEmail(ctx, n.config.Email.AdminEmail, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error":        err.Error(),
				"submissionId": submission.ID,
			})
			return Result{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}
		}
		emailSent = true
	}

	if n.config.SMS.Enabled && n.config.SMS.AdminNumber != "" {
		if err := n.sendSMS(ctx, n.config.SMS.AdminNumber, subject); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error":        err.Error(),
				"submissionId": submission.ID,
			})
			return Result{NotificationID: notificationID, Status: StatusFailed, SentAt: sentAt}
		}
		smsSent = true
	}

	status := StatusDisabled
	if emailSent || smsSent {
		status = StatusSent
	}

	return Result{NotificationID: notificationID, Status: status, SentAt: sentAt}
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.Email.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
