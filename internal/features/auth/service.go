package auth

import (
	"context"
	"errors"
	"fmt"

	"padtracker-console/internal/common/validation"
	"padtracker-console/internal/session"
	"padtracker-console/internal/upstream"

	"go.uber.org/zap"
)

type SendOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,len=10,numeric"`
}

type VerifyOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,len=10,numeric"`
	OTP    string `json:"otp" validate:"required,len=6,numeric"`
}

type AuthService interface {
	SendOTP(ctx context.Context, req SendOTPRequest) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*session.Session, string, error)
	Logout(ctx context.Context, sessionID string) error
}

type AuthServiceImpl struct {
	Client   *upstream.Client
	Sessions session.Service
	Logger   *zap.Logger
}

func NewAuthService(client *upstream.Client, sessions session.Service, logger *zap.Logger) AuthService {
	return &AuthServiceImpl{
		Client:   client,
		Sessions: sessions,
		Logger:   logger.Named("auth"),
	}
}

func (s *AuthServiceImpl) SendOTP(ctx context.Context, req SendOTPRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if err := s.Client.Post(ctx, upstream.PathSendOTP, req, nil); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// verifyResponse accepts the profile either at the top level or under data.
type verifyResponse struct {
	session.Profile
	Data *session.Profile `json:"data"`
}

func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*session.Session, string, error) {
	if err := validation.Struct(req); err != nil {
		return nil, "", err
	}

	var resp verifyResponse
	if err := s.Client.Post(ctx, upstream.PathVerifyOTP, req, &resp); err != nil {
		return nil, "", fmt.Errorf("verify otp: %w", err)
	}

	profile := resp.Profile
	if resp.Data != nil && resp.Data.Token != "" {
		profile = *resp.Data
	}
	if profile.Token == "" {
		return nil, "", errors.New("verify otp: response carried no token")
	}

	return s.Sessions.Create(ctx, profile)
}

func (s *AuthServiceImpl) Logout(ctx context.Context, sessionID string) error {
	if err := s.Sessions.Destroy(ctx, sessionID); err != nil {
		s.Logger.Error("failed to destroy session on logout", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	return nil
}
