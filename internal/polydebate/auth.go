package polydebate

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/polydebate/frontend/internal/models"
)

// CodeLength is the length of an email verification code
const CodeLength = 6

// ValidateEmail rejects addresses that cannot possibly receive a code
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	return nil
}

// ValidateName applies the backend's display-name rule
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "Name cannot be empty"}
	}
	if len([]rune(name)) < 2 {
		return &ValidationError{Field: "name", Message: "Name must be at least 2 characters"}
	}
	return nil
}

// ValidateCode rejects codes of the wrong length before they reach the network
func ValidateCode(code string) error {
	if len([]rune(strings.TrimSpace(code))) != CodeLength {
		return &ValidationError{Field: "code", Message: "Please enter the 6-digit code"}
	}
	return nil
}

type signupRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SignupRequestCode asks the backend to email a signup code
// POST /api/auth/signup/request-code
func (c *Client) SignupRequestCode(ctx context.Context, email, name string) (*models.CodeRequestResult, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return c.requestCode(ctx, "/api/auth/signup/request-code", signupRequest{
		Email: strings.TrimSpace(email),
		Name:  strings.TrimSpace(name),
	})
}

// LoginRequestCode asks the backend to email a login code
// POST /api/auth/login/request-code
func (c *Client) LoginRequestCode(ctx context.Context, email string) (*models.CodeRequestResult, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	return c.requestCode(ctx, "/api/auth/login/request-code", signupRequest{Email: strings.TrimSpace(email)})
}

func (c *Client) requestCode(ctx context.Context, path string, body signupRequest) (*models.CodeRequestResult, error) {
	var res models.CodeRequestResult
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SignupVerifyCode completes signup and stores the issued session
// POST /api/auth/signup/verify-code
func (c *Client) SignupVerifyCode(ctx context.Context, email, code string) (*models.User, error) {
	return c.verifyCode(ctx, "/api/auth/signup/verify-code", email, code)
}

// LoginVerifyCode completes login and stores the issued session
// POST /api/auth/login/verify-code
func (c *Client) LoginVerifyCode(ctx context.Context, email, code string) (*models.User, error) {
	return c.verifyCode(ctx, "/api/auth/login/verify-code", email, code)
}

func (c *Client) verifyCode(ctx context.Context, path, email, code string) (*models.User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateCode(code); err != nil {
		return nil, err
	}

	var res envelope[models.AuthPayload]
	req := verifyRequest{Email: strings.TrimSpace(email), Code: strings.TrimSpace(code)}
	if err := c.do(ctx, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	if err := c.saveSession(ctx, res.Data.Token, &res.Data.User); err != nil {
		return nil, err
	}
	return &res.Data.User, nil
}

func (c *Client) saveSession(ctx context.Context, token string, user *models.User) error {
	if token == "" {
		return &APIError{Status: http.StatusBadGateway, Code: "missing_token", Message: "Backend did not issue a session token"}
	}
	if c.tokens == nil {
		return nil
	}
	return c.tokens.SaveSession(ctx, token, user)
}

type userData struct {
	User models.User `json:"user"`
}

// CurrentUser fetches the user behind the stored token
// GET /api/auth/me
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var res envelope[userData]
	if err := c.get(ctx, "/api/auth/me", nil, &res); err != nil {
		return nil, err
	}
	return &res.Data.User, nil
}

// Logout forgets the stored session; the backend keeps no server-side session
func (c *Client) Logout(ctx context.Context) error {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.ClearSession(ctx)
}
