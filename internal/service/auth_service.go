package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

const (
	minPasswordLen = 6
	// bcrypt 只接受 72 字节以内
	maxPasswordLen = 72
)

type AuthService struct {
	users           repository.UserStore
	tokens          repository.TokenStore
	issuer          *pkg.TokenIssuer
	allowSuperadmin bool
	now             clock
}

func NewAuthService(users repository.UserStore, tokens repository.TokenStore, issuer *pkg.TokenIssuer, allowSuperadmin bool) *AuthService {
	return &AuthService{
		users:           users,
		tokens:          tokens,
		issuer:          issuer,
		allowSuperadmin: allowSuperadmin,
		now:             utcNow,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	College  string
	Role     model.Role
}

type LoginResult struct {
	Pair *pkg.Pair
	User *model.User
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return pkg.Invalid("name", "required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return pkg.Invalid("email", "invalid address")
	}
	return validatePassword("password", password)
}

func validatePassword(field, password string) error {
	if len(password) < minPasswordLen {
		return pkg.Invalid(field, "too short")
	}
	if len(password) > maxPasswordLen {
		return pkg.Invalid(field, "too long")
	}
	return nil
}

// Register college_admin 创建后待审核，student 与 superadmin 直接可用
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	if !in.Role.Valid() {
		return nil, pkg.Invalid("role", "unknown role")
	}
	if in.Role == model.RoleSuperadmin && !s.allowSuperadmin {
		return nil, pkg.ErrForbidden
	}
	if err := validateCredentials(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// CreateSuperadmin 命令行初始化超级管理员，不受注册开关限制
func (s *AuthService) CreateSuperadmin(ctx context.Context, name, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(name, email, password); err != nil {
		return nil, err
	}
	return s.create(ctx, RegisterInput{Name: name, Email: email, Password: password, Role: model.RoleSuperadmin})
}

func (s *AuthService) create(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:         model.NewID(),
		Name:       pkg.Sanitize(in.Name),
		Email:      in.Email,
		Password:   string(hash),
		College:    pkg.Sanitize(in.College),
		Role:       in.Role,
		IsApproved: in.Role != model.RoleCollegeAdmin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, pkg.ErrDuplicate) {
			return nil, pkg.WithReason(pkg.ErrDuplicate, "email already registered")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, pkg.ErrUnauthenticated
	}
	if user.Role == model.RoleCollegeAdmin && !user.IsApproved {
		return nil, pkg.WithReason(pkg.ErrForbidden, "admin account pending superadmin approval")
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Pair: pair, User: user}, nil
}

// issue 将 access token 写入 redis，同一用户只保留最新一个
func (s *AuthService) issue(ctx context.Context, user *model.User) (*pkg.Pair, error) {
	pair, err := s.issuer.GeneratePair(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	if err := s.tokens.AddUserToken(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.tokens.DeleteUserToken(ctx, userID)
}

// Refresh 重新读取用户，已删除或被撤销审核的账号无法续期
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, pkg.WithReason(pkg.ErrUnauthenticated, err.Error())
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, pkg.ErrUnauthenticated
		}
		return nil, err
	}
	if user.Role == model.RoleCollegeAdmin && !user.IsApproved {
		return nil, pkg.WithReason(pkg.ErrForbidden, "admin account pending superadmin approval")
	}
	return s.issue(ctx, user)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, college string) (*model.User, error) {
	name = pkg.Sanitize(name)
	if name == "" {
		return nil, pkg.Invalid("name", "required")
	}
	if err := s.users.UpdateProfile(ctx, userID, name, pkg.Sanitize(college)); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}

// ChangePassword 校验旧密码，修改后吊销当前令牌，需要重新登录
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := validatePassword("newPassword", newPassword); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return pkg.WithReason(pkg.ErrUnauthenticated, "old password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	return s.tokens.DeleteUserToken(ctx, userID)
}
