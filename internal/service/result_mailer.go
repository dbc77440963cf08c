package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// ResultMailer emails a user the outcome of a submitted attempt.
type ResultMailer interface {
	SendResult(ctx context.Context, toEmail, name string, attempt *entity.TestAttempt) error
}

// NoopResultMailer is used when no mail provider is configured.
type NoopResultMailer struct{}

func (NoopResultMailer) SendResult(ctx context.Context, toEmail, name string, attempt *entity.TestAttempt) error {
	log.Printf("[ResultMailer] noop result mail to=%s attempt=%s", toEmail, attempt.AttemptID)
	return nil
}

// ResendResultMailer sends result emails through the Resend REST API.
type ResendResultMailer struct {
	from   string
	client *resend.Client
}

func NewResendResultMailer(apiKey, from string) (*ResendResultMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendResultMailer{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendResultMailer) SendResult(ctx context.Context, toEmail, name string, attempt *entity.TestAttempt) error {
	if toEmail == "" || attempt == nil {
		return fmt.Errorf("toEmail and attempt are required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("Your test result: %.1f%%", attempt.Score),
		Text:    resultMailText(name, attempt),
		Html:    resultMailHTML(name, attempt),
	}
	// One mail per attempt even when a send is retried.
	options := &resend.SendEmailOptions{IdempotencyKey: "result-" + attempt.AttemptID}

	var lastErr error
	for try := 0; try < 3; try++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, try); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resultMailText(name string, a *entity.TestAttempt) string {
	return fmt.Sprintf("Hi %s,\n\nYou answered %d of %d questions and got %d right (%.1f%%) in %s.\nSubjects: %s\n",
		displayName(name), a.AnsweredQuestions, a.TotalQuestions, a.CorrectAnswers, a.Score,
		formatDuration(a.TimeSpent), strings.Join(a.Subjects, ", "))
}

func resultMailHTML(name string, a *entity.TestAttempt) string {
	return fmt.Sprintf("<p>Hi %s,</p><p>You answered <strong>%d</strong> of %d questions and got <strong>%d</strong> right (%.1f%%) in %s.</p><p>Subjects: %s</p>",
		html.EscapeString(displayName(name)), a.AnsweredQuestions, a.TotalQuestions, a.CorrectAnswers, a.Score,
		formatDuration(a.TimeSpent), html.EscapeString(strings.Join(a.Subjects, ", ")))
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

func formatDuration(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

// resendRetryDelay reports whether err is worth retrying and how long to wait.
func resendRetryDelay(err error, try int) (time.Duration, bool) {
	backoff := time.Duration(try+1) * 500 * time.Millisecond

	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter))
		if convErr != nil || seconds <= 0 {
			return 2 * backoff, true
		}
		return time.Duration(min(seconds, 30)) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return backoff, true
	}
	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return backoff, true
	}
	return 0, false
}
