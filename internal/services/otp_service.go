package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
)

// VerifyResult enumerates OTP verification outcomes.
type VerifyResult int

const (
	VerifyOK VerifyResult = iota
	VerifyNotFound
	VerifyLocked
	VerifyMismatch
	VerifyReplay
)

const otpMaxAttempts = 5

type OtpService interface {
	Issue(ctx context.Context, email, purpose string) error
	Verify(ctx context.Context, email, purpose, candidate string) (VerifyResult, error)
}

type otpService struct {
	otpRepo repositories.OtpRepository
	mailer  Mailer
	ttl     time.Duration
}

func NewOtpService(otpRepo repositories.OtpRepository, mailer Mailer, ttl time.Duration) OtpService {
	return &otpService{otpRepo: otpRepo, mailer: mailer, ttl: ttl}
}

// Issue generates a 6-digit code, stores only its hash, and mails the
// plaintext. A fast hash is sufficient here: the token space is 10^6 and the
// attempt counter locks out brute force long before it matters.
func (s *otpService) Issue(ctx context.Context, email, purpose string) error {
	code, err := generateOtpCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	otp := &models.Otp{
		ID:        uuid.New(),
		Email:     email,
		Purpose:   purpose,
		CodeHash:  hashOtp(code),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.otpRepo.Insert(ctx, otp); err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}

	return s.mailer.SendOtp(ctx, email, code, purpose)
}

// Verify resolves the latest active token and walks the lockout, mismatch
// and consume steps. The conditional consume is what guarantees that two
// concurrent verifications of the same valid code yield exactly one OK.
func (s *otpService) Verify(ctx context.Context, email, purpose, candidate string) (VerifyResult, error) {
	row, err := s.otpRepo.LatestActive(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return VerifyNotFound, nil
		}
		return VerifyNotFound, err
	}

	if row.Attempts >= otpMaxAttempts {
		return VerifyLocked, nil
	}

	if !safeCompare(row.CodeHash, hashOtp(candidate)) {
		// Best effort: a lost increment under concurrent failures is
		// tolerable, the lockout still converges.
		if err := s.otpRepo.IncrementAttempts(ctx, row.ID); err != nil {
			log.Printf("otp attempt increment failed for %s: %v", row.ID, err)
		}
		return VerifyMismatch, nil
	}

	consumed, err := s.otpRepo.Consume(ctx, row.ID)
	if err != nil {
		return VerifyMismatch, err
	}
	if !consumed {
		// A concurrent request consumed this token first. Logged distinctly
		// as a security signal even though the client sees a generic error.
		log.Printf("SECURITY: OTP replay detected for email %s purpose %s", email, purpose)
		return VerifyReplay, nil
	}
	return VerifyOK, nil
}

func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashOtp(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// safeCompare is constant time for equal-length inputs; both sides are
// fixed-length SHA-256 hex here.
func safeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
