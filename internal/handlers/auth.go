package handlers

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/rentdesk/internal/services"
	"github.com/example/rentdesk/internal/utils"
)

var otpCodePattern = regexp.MustCompile(`^\d{6}$`)

// AuthHandler bundles dependencies for registration and OTP login.
type AuthHandler struct {
	accounts *services.AccountStore
	otp      *services.OTPService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountStore, otp *services.OTPService) *AuthHandler {
	return &AuthHandler{accounts: accounts, otp: otp}
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Register creates a new account identified by email, phone or both.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	v := &utils.Validator{}
	v.Required("name", req.Name).
		AnyOf("identifier", req.Email, req.Phone).
		Email("email", req.Email).
		Pattern("phone", req.Phone, utils.IndianMobilePattern)
	if err := v.Err(); err != nil {
		return err
	}

	account, err := h.accounts.Create(c.UserContext(), services.NewAccount{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"account": account,
	})
}

type challengeRequest struct {
	Identifier string `json:"identifier"`
}

// RequestOTP issues a one-time code for the account behind identifier.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req challengeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	v := &utils.Validator{}
	if err := v.Required("identifier", req.Identifier).Err(); err != nil {
		return err
	}

	challenge, err := h.otp.IssueChallenge(c.UserContext(), req.Identifier)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":         true,
		"challenge_token": challenge.Token,
		"expires_at":      challenge.ExpiresAt,
	})
}

type verifyOTPRequest struct {
	Identifier     string `json:"identifier"`
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
}

// VerifyOTP exchanges a valid code for a session token. The account is named
// either by identifier or by the challenge token from RequestOTP.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Code = strings.TrimSpace(req.Code)

	v := &utils.Validator{}
	v.AnyOf("identifier", req.Identifier, req.ChallengeToken).
		Required("code", req.Code).
		Pattern("code", req.Code, otpCodePattern)
	if err := v.Err(); err != nil {
		return err
	}

	var (
		session *services.Session
		err     error
	)
	if strings.TrimSpace(req.Identifier) != "" {
		session, err = h.otp.VerifyChallenge(c.UserContext(), req.Identifier, req.Code)
	} else {
		session, err = h.otp.VerifyChallengeToken(c.UserContext(), req.ChallengeToken, req.Code)
	}
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   session.Token,
		"account": session.Account,
	})
}
