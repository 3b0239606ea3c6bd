package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"padtracker-console/internal/config"
	"padtracker-console/internal/database"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"
	"padtracker-console/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoToken      = errors.New("no console token")
	ErrInvalidToken = errors.New("invalid console token")
	ErrExpired      = errors.New("session expired")
	ErrRejected     = errors.New("token rejected by upstream")
	ErrUnknownRole  = errors.New("role not permitted")
)

// Profile is what OTP verification yields upstream.
type Profile struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	RoleID   RoleID `json:"roleId"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// RoleID accepts the role id as a JSON number or a numeric string.
type RoleID int

func (r *RoleID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*r = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("roleId: %w", err)
	}
	*r = RoleID(n)
	return nil
}

type Service interface {
	Create(ctx context.Context, p Profile) (*Session, string, error)
	Resolve(ctx context.Context, consoleToken string) (*Session, error)
	Validate(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
	Sweep(ctx context.Context) (int, error)
	TTL() time.Duration
}

type ServiceImpl struct {
	store      Store
	workspaces *store.Registry
	client     *upstream.Client
	logger     *zap.Logger
	ttl        time.Duration
	now        func() time.Time
}

func NewService(st Store, workspaces *store.Registry, client *upstream.Client, cfg *config.Config, logger *zap.Logger) Service {
	utils.SetSecret(cfg.JWTSecret)
	return &ServiceImpl{
		store:      st,
		workspaces: workspaces,
		client:     client,
		logger:     logger.Named("session"),
		ttl:        cfg.SessionTTL,
		now:        time.Now,
	}
}

// NewStore picks the durable store the config asks for.
func NewStore(cfg *config.Config, db *database.MongodbDB) Store {
	if cfg.SessionStore == "memory" || !db.Enabled() {
		return NewMemoryStore()
	}
	return NewMongoStore(db)
}

func (s *ServiceImpl) TTL() time.Duration { return s.ttl }

func (s *ServiceImpl) Create(ctx context.Context, p Profile) (*Session, string, error) {
	if p.Token == "" {
		return nil, "", errors.New("verification response carried no token")
	}
	role, err := ParseRole(p.Role)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Token:     p.Token,
		Role:      role,
		RoleID:    int(p.RoleID),
		Username:  p.Username,
		Name:      p.Name,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}

	token, err := utils.GenerateToken(sess.ID, string(sess.Role), s.ttl)
	if err != nil {
		return nil, "", fmt.Errorf("sign console token: %w", err)
	}

	s.logger.Info("session created", zap.String("session_id", sess.ID), zap.String("username", sess.Username), zap.String("role", string(sess.Role)))
	return sess, token, nil
}

func (s *ServiceImpl) Resolve(ctx context.Context, consoleToken string) (*Session, error) {
	if consoleToken == "" {
		return nil, ErrNoToken
	}
	claims, err := utils.ValidateToken(consoleToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sess, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.Destroy(ctx, sess.ID); err != nil {
			s.logger.Warn("failed to destroy expired session", zap.String("session_id", sess.ID), zap.Error(err))
		}
		return nil, ErrExpired
	}
	return sess, nil
}

type validateResponse struct {
	Valid *bool `json:"valid"`
	Data  *struct {
		Valid *bool `json:"valid"`
	} `json:"data"`
}

// Validate asks the upstream API whether the session's token is still good. It is called on
// every protected navigation and never cached.
func (s *ServiceImpl) Validate(ctx context.Context, sess *Session) error {
	var resp validateResponse
	if err := s.client.Get(WithSession(ctx, sess), upstream.PathValidateToken, nil, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if resp.Valid != nil && !*resp.Valid {
		return ErrRejected
	}
	if resp.Data != nil && resp.Data.Valid != nil && !*resp.Data.Valid {
		return ErrRejected
	}
	return nil
}

func (s *ServiceImpl) Destroy(ctx context.Context, id string) error {
	s.workspaces.Drop(id)
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("session destroyed", zap.String("session_id", id))
	return nil
}

func (s *ServiceImpl) Sweep(ctx context.Context) (int, error) {
	ids, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.workspaces.Drop(id)
	}
	s.workspaces.Prune(s.now().Add(-s.ttl))
	return len(ids), nil
}
