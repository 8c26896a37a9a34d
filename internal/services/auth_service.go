/**
 * @description
 * Passwordless sign-in.
 * Each flow (signup or login) is a two-step state machine kept in the
 * session: EmailEntry -> CodeEntry. Resend repeats step one without moving.
 * A failed request keeps the flow where it was and records the server's
 * message for display.
 *
 * @dependencies
 * - frontend/internal/polydebate
 * - frontend/internal/session
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/session"
)

// AuthMode selects the backend endpoints a flow uses
type AuthMode string

const (
	AuthSignup AuthMode = "signup"
	AuthLogin  AuthMode = "login"
)

// AuthStep is the position of a flow
type AuthStep string

const (
	StepEmailEntry AuthStep = "email_entry"
	StepCodeEntry  AuthStep = "code_entry"
)

// ErrWrongStep is returned when an action is not valid for the flow's step
var ErrWrongStep = errors.New("auth: action not valid at this step")

// AuthFlow is the persisted state of one sign-in attempt
type AuthFlow struct {
	Mode          AuthMode `json:"mode"`
	Step          AuthStep `json:"step"`
	Email         string   `json:"email,omitempty"`
	Name          string   `json:"name,omitempty"`
	ExpiryMinutes int      `json:"expiry_minutes,omitempty"`
	Message       string   `json:"message,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func flowKey(mode AuthMode) string { return "auth_flow:" + string(mode) }

type AuthService struct {
	API *polydebate.Client
}

func NewAuthService(api *polydebate.Client) *AuthService {
	return &AuthService{API: api}
}

// ParseMode validates a mode path segment
func ParseMode(raw string) (AuthMode, error) {
	switch AuthMode(raw) {
	case AuthSignup, AuthLogin:
		return AuthMode(raw), nil
	}
	return "", &polydebate.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown auth mode %q", raw)}
}

// Flow returns the session's flow for mode, starting at EmailEntry
func (s *AuthService) Flow(ctx context.Context, sess *session.Session, mode AuthMode) (*AuthFlow, error) {
	raw, err := sess.Value(ctx, flowKey(mode))
	if err != nil {
		return nil, err
	}
	flow := &AuthFlow{Mode: mode, Step: StepEmailEntry}
	if raw == "" {
		return flow, nil
	}
	if err := json.Unmarshal([]byte(raw), flow); err != nil || flow.Mode != mode {
		return &AuthFlow{Mode: mode, Step: StepEmailEntry}, nil
	}
	return flow, nil
}

func (s *AuthService) save(ctx context.Context, sess *session.Session, flow *AuthFlow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return err
	}
	return sess.SetValue(ctx, flowKey(flow.Mode), string(data))
}

// RequestCode runs step one. On success the flow moves to CodeEntry.
func (s *AuthService) RequestCode(ctx context.Context, sess *session.Session, mode AuthMode, email, name string) (*AuthFlow, error) {
	flow, err := s.Flow(ctx, sess, mode)
	if err != nil {
		return nil, err
	}
	flow.Email, flow.Name = email, name

	res, reqErr := s.requestCode(ctx, mode, email, name)
	if reqErr != nil {
		flow.Error = reqErr.Error()
		if err := s.save(ctx, sess, flow); err != nil {
			logger.Warn("AuthService: failed to persist flow: %v", err)
		}
		return flow, reqErr
	}

	flow.Step = StepCodeEntry
	flow.ExpiryMinutes = res.ExpiryMinutes
	flow.Message = res.Message
	flow.Error = ""
	return flow, s.save(ctx, sess, flow)
}

// Resend repeats step one for the flow's email without changing step
func (s *AuthService) Resend(ctx context.Context, sess *session.Session, mode AuthMode) (*AuthFlow, error) {
	flow, err := s.Flow(ctx, sess, mode)
	if err != nil {
		return nil, err
	}
	if flow.Step != StepCodeEntry {
		return flow, ErrWrongStep
	}

	res, reqErr := s.requestCode(ctx, mode, flow.Email, flow.Name)
	if reqErr != nil {
		flow.Error = reqErr.Error()
	} else {
		flow.ExpiryMinutes = res.ExpiryMinutes
		flow.Message = res.Message
		flow.Error = ""
	}
	if err := s.save(ctx, sess, flow); err != nil {
		return flow, err
	}
	return flow, reqErr
}

func (s *AuthService) requestCode(ctx context.Context, mode AuthMode, email, name string) (*models.CodeRequestResult, error) {
	if mode == AuthSignup {
		return s.API.SignupRequestCode(ctx, email, name)
	}
	return s.API.LoginRequestCode(ctx, email)
}

// Verify runs step two. On success the token and user are stored in the
// session and the flow is discarded.
func (s *AuthService) Verify(ctx context.Context, sess *session.Session, mode AuthMode, code string) (*models.User, *AuthFlow, error) {
	flow, err := s.Flow(ctx, sess, mode)
	if err != nil {
		return nil, nil, err
	}
	if flow.Step != StepCodeEntry {
		return nil, flow, ErrWrongStep
	}

	api := s.API.WithTokens(sess)
	var user *models.User
	if mode == AuthSignup {
		user, err = api.SignupVerifyCode(ctx, flow.Email, code)
	} else {
		user, err = api.LoginVerifyCode(ctx, flow.Email, code)
	}
	if err != nil {
		flow.Error = err.Error()
		if saveErr := s.save(ctx, sess, flow); saveErr != nil {
			logger.Warn("AuthService: failed to persist flow: %v", saveErr)
		}
		return nil, flow, err
	}

	if err := sess.DeleteValue(ctx, flowKey(mode)); err != nil {
		logger.Warn("AuthService: failed to discard finished flow: %v", err)
	}
	return user, nil, nil
}

// Restart returns the flow to EmailEntry
func (s *AuthService) Restart(ctx context.Context, sess *session.Session, mode AuthMode) error {
	return sess.DeleteValue(ctx, flowKey(mode))
}

// Bootstrap validates the session's persisted token
func (s *AuthService) Bootstrap(ctx context.Context, sess *session.Session) (*models.User, error) {
	return sess.Bootstrap(ctx, s.API)
}

// Logout clears the session and every cache that depends on it
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	return s.API.WithTokens(sess).Logout(ctx)
}

// AdminLogin signs in with admin credentials
func (s *AuthService) AdminLogin(ctx context.Context, sess *session.Session, email, password string) (*models.User, error) {
	return s.API.WithTokens(sess).AdminLogin(ctx, email, password)
}
