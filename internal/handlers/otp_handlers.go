package handlers

import (
	"net/http"
	"net/mail"

	"gstvault/internal/common"
	"gstvault/internal/services"

	"github.com/labstack/echo/v4"
)

// OtpHandlers handles one-time password issue and verification
type OtpHandlers struct {
	otpSvc services.OtpService
}

func NewOtpHandlers(otpSvc services.OtpService) *OtpHandlers {
	return &OtpHandlers{otpSvc: otpSvc}
}

// SendOtp handles POST /otp/send
func (h *OtpHandlers) SendOtp(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return common.SendValidationError(c, "email", "A valid email is required")
	}
	if req.Purpose == "" {
		req.Purpose = "login"
	}

	if err := h.otpSvc.Issue(ctx, req.Email, req.Purpose); err != nil {
		return common.SendServerError(c, "Failed to send verification code")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Verification code sent"})
}

// VerifyOtp handles POST /otp/verify. Every failure mode returns the same
// generic message so callers cannot distinguish absence, lockout or replay.
func (h *OtpHandlers) VerifyOtp(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
		Otp     string `json:"otp"`
		Code    string `json:"code"` // accepted as an alias for otp
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	candidate := req.Otp
	if candidate == "" {
		candidate = req.Code
	}
	if req.Email == "" || candidate == "" {
		return common.SendClientError(c, "Email and otp are required")
	}
	if req.Purpose == "" {
		req.Purpose = "login"
	}

	result, err := h.otpSvc.Verify(ctx, req.Email, req.Purpose, candidate)
	if err != nil {
		return common.SendServerError(c, "Verification failed")
	}
	if result != services.VerifyOK {
		return common.SendClientError(c, "Invalid or expired verification code")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Verification successful"})
}
