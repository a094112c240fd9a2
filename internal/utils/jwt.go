package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	purposeSession      = "session"
	purposeOTPChallenge = "otp_challenge"
)

// ErrWrongTokenPurpose is returned when a valid token is presented where a
// different kind of token is expected.
var ErrWrongTokenPurpose = errors.New("token purpose mismatch")

type jwtCustomClaims struct {
	AccountID string `json:"account_id"`
	Purpose   string `json:"purpose"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and verifies bearer credentials.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer constructs a SessionIssuer signing with HS256.
func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, used by tests.
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	s.now = now
	return s
}

// Issue creates a signed session token for the provided account ID.
func (s *SessionIssuer) Issue(accountID uuid.UUID) (string, error) {
	issuedAt := s.now()
	return s.sign(accountID, purposeSession, issuedAt, issuedAt.Add(s.ttl))
}

// IssueChallenge creates a token that only references a pending OTP challenge.
// It is not accepted as a session.
func (s *SessionIssuer) IssueChallenge(accountID uuid.UUID, expiresAt time.Time) (string, error) {
	return s.sign(accountID, purposeOTPChallenge, s.now(), expiresAt)
}

// VerifyBearerToken validates a session token and returns the embedded account ID.
func (s *SessionIssuer) VerifyBearerToken(tokenString string) (uuid.UUID, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.Purpose != purposeSession {
		return uuid.Nil, ErrWrongTokenPurpose
	}
	return uuid.Parse(claims.AccountID)
}

// VerifyChallengeToken validates a challenge token and returns its account ID.
func (s *SessionIssuer) VerifyChallengeToken(tokenString string) (uuid.UUID, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.Purpose != purposeOTPChallenge {
		return uuid.Nil, ErrWrongTokenPurpose
	}
	return uuid.Parse(claims.AccountID)
}

func (s *SessionIssuer) sign(accountID uuid.UUID, purpose string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &jwtCustomClaims{
		AccountID: accountID.String(),
		Purpose:   purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionIssuer) parse(tokenString string) (*jwtCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*jwtCustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}
