/**
 * @description
 * User, auth and profile transport objects.
 */

package models

// User is the account identity returned by the auth endpoints
type User struct {
	ID              int64   `json:"id"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	AvatarURL       *string `json:"avatar_url,omitempty"`
	TokensRemaining int     `json:"tokens_remaining"`
	TotalDebates    int     `json:"total_debates"`
	CreatedAt       *string `json:"created_at,omitempty"`
	LastLogin       *string `json:"last_login,omitempty"`
	IsActive        bool    `json:"is_active"`
	IsVerified      bool    `json:"is_verified"`
	IsAdmin         bool    `json:"is_admin"`
}

// AuthPayload carries the session token issued on successful verification
type AuthPayload struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// CodeRequestResult is the response to a verification-code request
type CodeRequestResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ExpiryMinutes int    `json:"expiry_minutes"`
}

// NamedCount is a ranked label with a usage count
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ProfileStatistics aggregates a user's activity
type ProfileStatistics struct {
	TotalDebates       int          `json:"total_debates"`
	TotalFavorites     int          `json:"total_favorites"`
	FavoriteModels     []NamedCount `json:"favorite_models"`
	FavoriteCategories []NamedCount `json:"favorite_categories"`
}

// Profile wraps GET /api/profile
type Profile struct {
	User       User              `json:"user"`
	Statistics ProfileStatistics `json:"statistics"`
}

// Favorite is a (user, market) bookmark
type Favorite struct {
	ID        int64  `json:"id"`
	MarketID  string `json:"market_id"`
	DebateID  string `json:"debate_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// FavoriteList wraps the favorites listing endpoints
type FavoriteList struct {
	Favorites []Favorite `json:"favorites"`
	Total     int        `json:"total"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}

// FavoriteCheck wraps GET /api/favorites/check/<market_id>
type FavoriteCheck struct {
	IsFavorited   bool `json:"is_favorited"`
	Authenticated bool `json:"authenticated"`
}

// AdminDebateRow is a row of the admin debate table
type AdminDebateRow struct {
	ID        string       `json:"id"`
	Slug      string       `json:"slug"`
	Title     string       `json:"title"`
	UserID    *int64       `json:"user_id,omitempty"`
	Status    DebateStatus `json:"status"`
	CreatedAt *string      `json:"created_at,omitempty"`
}

// AdminAnalytics is the admin dashboard headline numbers
type AdminAnalytics struct {
	TotalUsers       int `json:"total_users"`
	TotalDebates     int `json:"total_debates"`
	TotalMessages    int `json:"total_messages"`
	RecentDebates24h int `json:"recent_debates_24h"`
}

// AdminLoginResult is the response to POST /api/admin/login
type AdminLoginResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}
