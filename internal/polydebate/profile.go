package polydebate

import (
	"context"
	"net/http"
	"strings"

	"github.com/polydebate/frontend/internal/models"
)

// GetProfile fetches the signed-in user's profile and statistics
// GET /api/profile
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.get(ctx, "/api/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile renames the signed-in user
// PUT /api/profile
func (c *Client) UpdateProfile(ctx context.Context, name string) (*models.User, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	var res userData
	body := map[string]string{"name": strings.TrimSpace(name)}
	if err := c.do(ctx, http.MethodPut, "/api/profile", body, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}
