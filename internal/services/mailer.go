package services

import (
	"context"
	"log"
)

// Mailer delivers one-time codes. SMTP wiring is an ops concern; the dev
// implementation just logs the delivery without the code itself.
type Mailer interface {
	SendOtp(ctx context.Context, email, code, purpose string) error
}

type logMailer struct{}

func NewLogMailer() Mailer {
	return &logMailer{}
}

func (m *logMailer) SendOtp(ctx context.Context, email, code, purpose string) error {
	log.Printf("OTP issued for %s (purpose %s)", email, purpose)
	return nil
}
