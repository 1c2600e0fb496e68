// internal/notify/notifier_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-engine/internal/common/config"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         int
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       int
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	return m.PublishFunc(ctx, params, optFns...)
}

func testNotificationConfig() config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "noreply@assessments.example.com"
	cfg.Email.AdminEmail = "reviewers@assessments.example.com"
	cfg.SMS.Enabled = false
	cfg.AWS.Region = "us-east-1"
	return cfg
}

func testSubmission() *models.Submission {
	return &models.Submission{
		ID:            "sub-42",
		CandidateName: "Arun Mehta",
		TestType:      "workplace",
	}
}

func testReport() *models.AssessmentReport {
	return &models.AssessmentReport{
		Summary: models.ReportSummary{OverallScore: 7.3, OverallBand: "Very Good"},
	}
}

func TestNotifier_ReportReady_SendsEmail(t *testing.T) {
	var captured *ses.SendEmailInput
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{}, nil
		},
	}
	snsMock := &MockSNSService{}

	notifier := NewNotifierWithClients(testNotificationConfig(), sesMock, snsMock, logger.NewNop())

	result := notifier.ReportReady(context.Background(), testSubmission(), testReport())

	assert.Equal(t, StatusSent, result.Status)
	assert.NotEmpty(t, result.NotificationID)
	require.NotNil(t, captured)
	assert.Equal(t, "reviewers@assessments.example.com", captured.Destination.ToAddresses[0])
	assert.Contains(t, *captured.Message.Subject.Data, "Arun Mehta")
	assert.Contains(t, *captured.Message.Body.Text.Data, "Very Good")
	assert.Equal(t, 0, snsMock.calls)
}

func TestNotifier_ReportReady_EmailFailure(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("SES quota exceeded")
		},
	}

	notifier := NewNotifierWithClients(testNotificationConfig(), sesMock, &MockSNSService{}, logger.NewNop())

	result := notifier.ReportReady(context.Background(), testSubmission(), testReport())

	assert.Equal(t, StatusFailed, result.Status)
}

func TestNotifier_ReportReady_SMSWhenEnabled(t *testing.T) {
	cfg := testNotificationConfig()
	cfg.Email.Enabled = false
	cfg.SMS.Enabled = true
	cfg.SMS.AdminNumber = "+15550006789"

	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			assert.Equal(t, "+15550006789", *params.PhoneNumber)
			return &sns.PublishOutput{}, nil
		},
	}

	notifier := NewNotifierWithClients(cfg, &MockSESService{}, snsMock, logger.NewNop())

	result := notifier.ReportReady(context.Background(), testSubmission(), testReport())

	assert.Equal(t, StatusSent, result.Status)
	assert.Equal(t, 1, snsMock.calls)
}

func TestNotifier_ReportReady_AllChannelsDisabled(t *testing.T) {
	cfg := testNotificationConfig()
	cfg.Email.Enabled = false
	cfg.SMS.Enabled = false

	notifier := NewNotifierWithClients(cfg, &MockSESService{}, &MockSNSService{}, logger.NewNop())

	result := notifier.ReportReady(context.Background(), testSubmission(), testReport())

	assert.Equal(t, StatusDisabled, result.Status)
}
