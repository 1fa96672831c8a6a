package sendemail

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"hotsheet-workers/internal/common/logger"
	"hotsheet-workers/internal/models"
)

var (
	ErrUnknownTemplate = errors.New("unknown email template")
	ErrInvalidAddress  = errors.New("invalid recipient address")
	ErrDeliveryFailed  = errors.New("NOTIFICATION_SEND_FAILED")
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Service renders a queued email job and hands it to the providers. It is
// the only place in the fleet that actually sends mail.
type Service struct {
	config    *Config
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func NewService(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Service {
	return &Service{
		config:    config,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log,
	}
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Deliver renders and sends one job. The subject carried on the job wins
// over the template's subject when present.
func (s *Service) Deliver(ctx context.Context, job *models.EmailJob) (*Output, error) {
	if !emailRe.MatchString(job.Recipient) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, job.Recipient)
	}

	template, exists := emailTemplates[job.Template]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, job.Template)
	}

	subject := job.Subject
	if subject == "" {
		subject = renderTemplate(template["subject"], job.Variables)
	}
	body := renderTemplate(template["body"], job.Variables)

	sentAt := time.Now().UTC().Format(time.RFC3339)

	if !s.config.EmailEnabled {
		s.logger.Info("email delivery disabled, dropping job", map[string]interface{}{
			"jobId":    job.ID,
			"template": job.Template,
		})
		return &Output{MessageID: job.ID, Status: StatusDisabled, SentAt: sentAt}, nil
	}

	if err := s.sendEmail(ctx, job.Recipient, subject, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if s.config.SMSEnabled && job.Priority == s.config.SMSPriority {
		if phone, ok := job.Variables["phone"].(string); ok && phone != "" {
			if err := s.sendSMS(ctx, phone, body); err != nil {
				// Email already went out; a failed SMS is logged, not fatal.
				s.logger.Error("SMS send failed", map[string]interface{}{
					"jobId": job.ID,
					"error": err,
				})
			}
		}
	}

	s.logger.Info("email delivered", map[string]interface{}{
		"jobId":     job.ID,
		"template":  job.Template,
		"recipient": job.Recipient,
	})

	return &Output{MessageID: job.ID, Status: StatusSent, SentAt: sentAt}, nil
}

func (s *Service) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.config.FromEmail),
	})
	return err
}

func (s *Service) sendSMS(ctx context.Context, to, message string) error {
	_, err := s.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// renderTemplate substitutes {{name}} placeholders from the variables map.
// Unmatched placeholders render as empty strings.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		switch t := v.(type) {
		case string:
			value = t
		case float64:
			if t == float64(int64(t)) {
				value = fmt.Sprintf("%d", int64(t))
			} else {
				value = fmt.Sprintf("%v", t)
			}
		case nil:
		default:
			value = fmt.Sprintf("%v", t)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end < 0 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
