package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type SignupForm struct {
	Username string `form:"username" validate:"required,max=150,username"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}

type UserService struct {
	repo     repository.UserStore
	sessions repository.SessionStore
	tokens   *pkg.TokenIssuer
	// session 有效期，每次鉴权通过后续期
	sessionTTL time.Duration
}

func NewUserService(repo repository.UserStore, sessions repository.SessionStore, tokens *pkg.TokenIssuer) *UserService {
	return &UserService{
		repo:       repo,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: tokens.RefreshTTL,
	}
}

func (s *UserService) Register(ctx context.Context, form SignupForm) (*model.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	if err := validateForm(form); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: form.Username,
		Password: string(hash),
		Role:     model.RoleUser,
	}
	if err = s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("username", "A user with that username already exists.")
		}
		return nil, err
	}
	return user, nil
}

// Login 校验密码并签发 token，access 写入 session（单点登录，新登录会挤掉旧的）
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, *pkg.Pair, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.tokens.GeneratePair(user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	if err = s.sessions.Save(ctx, user.ID, pair.AccessToken, s.sessionTTL); err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.sessions.Delete(ctx, userID)
}

// Authenticate 解析 cookie 中的 token。
// access 有效且与 session 一致时直接通过；access 过期时用 refresh 换新，
// 返回的 pair 非 nil 表示需要重写 cookie。没有任何 token 时返回 ErrAuthRequired。
func (s *UserService) Authenticate(ctx context.Context, access, refresh string) (*model.User, *pkg.Pair, error) {
	if access == "" && refresh == "" {
		return nil, nil, ErrAuthRequired
	}
	if access != "" {
		claims, err := s.tokens.ParseAccess(access)
		if err == nil {
			user, err := s.checkSession(ctx, claims.UserID, access)
			return user, nil, err
		}
		if !errors.Is(err, pkg.ErrTokenExpired) || refresh == "" {
			return nil, nil, ErrAuthRequired
		}
	}

	claims, pair, err := s.tokens.Refresh(refresh)
	if err != nil {
		return nil, nil, ErrAuthRequired
	}
	stored, err := s.sessions.Get(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrAuthRequired
	}
	if err != nil {
		return nil, nil, err
	}
	// 其他地方登录后旧 access 不再能换新
	if access != "" && stored != access {
		return nil, nil, ErrSessionInvalid
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, ErrAuthRequired
	}
	if user.Role != claims.Role {
		if pair, err = s.tokens.GeneratePair(user.ID, user.Role); err != nil {
			return nil, nil, err
		}
	}
	if err = s.sessions.Save(ctx, user.ID, pair.AccessToken, s.sessionTTL); err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *UserService) checkSession(ctx context.Context, userID uint64, access string) (*model.User, error) {
	stored, err := s.sessions.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAuthRequired
	}
	if err != nil {
		return nil, err
	}
	if stored != access {
		return nil, ErrSessionInvalid
	}
	// 校验通过后更新过期时间
	if err = s.sessions.Extend(ctx, userID, s.sessionTTL); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrAuthRequired
	}
	return user, nil
}

// Promote 授予管理员角色
func (s *UserService) Promote(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if err = s.repo.UpdateRole(ctx, user.ID, model.RoleAdmin); err != nil {
		return nil, err
	}
	user.Role = model.RoleAdmin
	return user, nil
}
