package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/shared"
)

type authPayload struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

// Login exchanges credentials for a session.
func (c *AnalysisClient) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	return c.authenticate(ctx, PathLogin, creds)
}

// Register creates an account and returns its session.
func (c *AnalysisClient) Register(ctx context.Context, creds models.Credentials) (models.Session, error) {
	return c.authenticate(ctx, PathRegister, creds)
}

func (c *AnalysisClient) authenticate(ctx context.Context, path string, creds models.Credentials) (models.Session, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to encode credentials: %w", err)
	}

	resp, err := c.Post(ctx, nil, path, "application/json", bytes.NewReader(data))
	if err != nil {
		c.logger.Error("auth request failed", "path", path, "error", err)
		return models.Session{}, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := Detail(resp.Body)
		if msg == "" {
			msg = fmt.Sprintf("Auth error (%d)", resp.StatusCode)
		}
		c.logger.Warn("auth rejected", "path", path, "status", resp.StatusCode, "request_id", resp.RequestID)
		return models.Session{}, fmt.Errorf("%w: %s", shared.ErrAuthFailed, msg)
	}

	var p authPayload
	if err := json.Unmarshal(resp.Body, &p); err != nil {
		return models.Session{}, fmt.Errorf("%w: %s", shared.ErrAuthFailed, InvalidResponseMessage)
	}

	plan, err := models.ParsePlan(p.Plan)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	session := models.Session{Token: p.Token, Email: p.Email, Plan: plan}
	if !session.Valid() {
		return models.Session{}, fmt.Errorf("%w: incomplete session in response", shared.ErrAuthFailed)
	}

	c.logger.Info("authenticated", "email", session.Email, "plan", session.Plan, "request_id", resp.RequestID)
	return session, nil
}
