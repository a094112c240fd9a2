package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/rentdesk/internal/logging"
	"github.com/example/rentdesk/internal/models"
)

const (
	// OTPTTL is how long an issued code stays valid.
	OTPTTL = 3 * time.Minute

	otpMin = 100000
	otpMax = 999999
)

// CodeGenerator produces a six digit numeric code.
type CodeGenerator func() (string, error)

// TokenIssuer is the part of the session issuer the OTP flow needs.
type TokenIssuer interface {
	Issue(accountID uuid.UUID) (string, error)
	IssueChallenge(accountID uuid.UUID, expiresAt time.Time) (string, error)
	VerifyChallengeToken(token string) (uuid.UUID, error)
}

// Challenge is returned when a code has been issued.
type Challenge struct {
	Token     string
	ExpiresAt time.Time
}

// Session is returned after a successful verification.
type Session struct {
	Token   string
	Account *models.Account
}

// OTPService issues and verifies one-time passcodes.
type OTPService struct {
	accounts *AccountStore
	tokens   TokenIssuer
	notifier OTPNotifier
	log      *zap.Logger
	now      func() time.Time
	generate CodeGenerator
}

// OTPOption customises an OTPService.
type OTPOption func(*OTPService)

// WithOTPClock replaces the time source.
func WithOTPClock(now func() time.Time) OTPOption {
	return func(s *OTPService) { s.now = now }
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(generate CodeGenerator) OTPOption {
	return func(s *OTPService) { s.generate = generate }
}

// NewOTPService constructs an OTPService.
func NewOTPService(accounts *AccountStore, tokens TokenIssuer, notifier OTPNotifier, log *zap.Logger, opts ...OTPOption) *OTPService {
	s := &OTPService{
		accounts: accounts,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		generate: GenerateVerificationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueChallenge stores a new code for the account matching identifier and
// hands it to the notifier. Any earlier code is overwritten.
func (s *OTPService) IssueChallenge(ctx context.Context, identifier string) (*Challenge, error) {
	account, err := s.accounts.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	code, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	expiresAt := s.now().Add(OTPTTL)
	if err := s.accounts.SetOTP(ctx, account.ID, code, expiresAt); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	if err := s.notifier.NotifyOTP(ctx, account, code, expiresAt); err != nil {
		s.log.Error("otp delivery failed",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	token, err := s.tokens.IssueChallenge(account.ID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("issue challenge token: %w", err)
	}

	s.log.Info("otp challenge issued",
		zap.String("account_id", account.ID.String()),
		zap.String("identifier", logging.MaskIdentifier(identifier)),
	)

	return &Challenge{Token: token, ExpiresAt: expiresAt}, nil
}

// VerifyChallenge checks code against the stored one. Expiry is evaluated
// before the comparison, so a correct but stale code yields ErrOTPExpired.
func (s *OTPService) VerifyChallenge(ctx context.Context, identifier, code string) (*Session, error) {
	account, err := s.accounts.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, account, code)
}

// VerifyChallengeToken is VerifyChallenge for clients that kept the challenge
// token instead of the identifier. An expired token means the code expired
// with it.
func (s *OTPService) VerifyChallengeToken(ctx context.Context, challengeToken, code string) (*Session, error) {
	accountID, err := s.tokens.VerifyChallengeToken(strings.TrimSpace(challengeToken))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrOTPExpired
		}
		return nil, ErrChallengeInvalid
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, account, code)
}

func (s *OTPService) verify(ctx context.Context, account *models.Account, code string) (*Session, error) {
	now := s.now()
	if !account.HasPendingOTP(now) {
		return nil, ErrOTPExpired
	}

	submitted := strings.TrimSpace(code)
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(*account.OTPCode)) != 1 {
		return nil, ErrOTPInvalid
	}

	consumed, err := s.accounts.ConsumeOTP(ctx, account.ID, *account.OTPCode, now)
	if err != nil {
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	if !consumed {
		// Another verification used the code, or a newer one replaced it.
		return nil, ErrOTPExpired
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	account.OTPCode = nil
	account.OTPExpiresAt = nil
	account.LastLoginAt = &now

	s.log.Info("otp verified", zap.String("account_id", account.ID.String()))

	return &Session{Token: token, Account: account}, nil
}

// GenerateVerificationCode draws a code uniformly from [100000, 999999].
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}
