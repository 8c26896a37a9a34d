package polydebate

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/polydebate/frontend/internal/models"
)

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLogin signs an administrator in with email and password and stores the session
// POST /api/admin/login
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*models.User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Message: "Email and password are required"}
	}

	var res models.AdminLoginResult
	req := adminLoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", req, &res); err != nil {
		return nil, err
	}
	if err := c.saveSession(ctx, res.Token, &res.User); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// AdminUsers lists all users
// GET /api/admin/users
func (c *Client) AdminUsers(ctx context.Context) ([]models.User, error) {
	var res envelope[[]models.User]
	if err := c.get(ctx, "/api/admin/users", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// AdminDeleteUser deactivates a user
// DELETE /api/admin/users/<id>
func (c *Client) AdminDeleteUser(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/users/"+strconv.FormatInt(userID, 10), nil, nil)
}

// AdminDebates lists the most recent debates
// GET /api/admin/debates
func (c *Client) AdminDebates(ctx context.Context) ([]models.AdminDebateRow, error) {
	var res envelope[[]models.AdminDebateRow]
	if err := c.get(ctx, "/api/admin/debates", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// AdminAnalytics fetches dashboard totals
// GET /api/admin/analytics
func (c *Client) AdminAnalytics(ctx context.Context) (*models.AdminAnalytics, error) {
	var res envelope[models.AdminAnalytics]
	if err := c.get(ctx, "/api/admin/analytics", nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}
