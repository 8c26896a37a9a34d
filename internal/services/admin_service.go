package services

import (
	"context"

	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/session"
	"golang.org/x/sync/errgroup"
)

// AdminDashboard is the admin console landing page
type AdminDashboard struct {
	Analytics *models.AdminAnalytics  `json:"analytics"`
	Users     []models.User           `json:"users"`
	Debates   []models.AdminDebateRow `json:"debates"`
}

// AdminService backs the admin console. Authorization is enforced by the backend.
type AdminService struct {
	api *polydebate.Client
}

func NewAdminService(api *polydebate.Client) *AdminService {
	return &AdminService{api: api}
}

// Dashboard loads analytics, users and debates concurrently
func (s *AdminService) Dashboard(ctx context.Context, sess *session.Session) (*AdminDashboard, error) {
	api := s.api.WithTokens(sess)
	var dash AdminDashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := api.AdminAnalytics(gctx)
		dash.Analytics = a
		return err
	})
	g.Go(func() error {
		u, err := api.AdminUsers(gctx)
		dash.Users = u
		return err
	})
	g.Go(func() error {
		d, err := api.AdminDebates(gctx)
		dash.Debates = d
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dash, nil
}

func (s *AdminService) Users(ctx context.Context, sess *session.Session) ([]models.User, error) {
	return s.api.WithTokens(sess).AdminUsers(ctx)
}

func (s *AdminService) DeleteUser(ctx context.Context, sess *session.Session, userID int64) error {
	return s.api.WithTokens(sess).AdminDeleteUser(ctx, userID)
}

func (s *AdminService) Debates(ctx context.Context, sess *session.Session) ([]models.AdminDebateRow, error) {
	return s.api.WithTokens(sess).AdminDebates(ctx)
}

func (s *AdminService) Analytics(ctx context.Context, sess *session.Session) (*models.AdminAnalytics, error) {
	return s.api.WithTokens(sess).AdminAnalytics(ctx)
}
