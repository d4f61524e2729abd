package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/constants"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret-key-for-auth-service-tests"
	cfg.JWT.ExpireHours = 24
	cfg.Security.PasswordPolicy.MinLength = 8
	cfg.Security.PasswordPolicy.RequireNumber = true
	return NewAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	user, err := svc.Register("  User@Example.COM ", "password123", "小王")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("email should be normalized, got %s", user.Email)
	}
	if user.Role != constants.UserRoleUser || user.Status != constants.UserStatusActive {
		t.Fatalf("new user want user/active got %s/%s", user.Role, user.Status)
	}
	if user.PasswordHash == "password123" {
		t.Fatalf("password must not be stored in plain text")
	}

	loggedIn, token, expiresAt, err := svc.Login("user@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.ID != user.ID || token == "" {
		t.Fatalf("unexpected login result: id=%d token=%q", loggedIn.ID, token)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("token should not be expired at issue time")
	}
	if loggedIn.LastLoginAt == nil {
		t.Fatalf("login should stamp last_login_at")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email || claims.Role != constants.UserRoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	if _, err := svc.Register("user@example.com", "password123", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	// 大小写不同视为同一邮箱
	if _, err := svc.Register("USER@example.com", "password123", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate email want ErrEmailExists got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	if _, err := svc.Register("user@example.com", "short1", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("short password want ErrWeakPassword got %v", err)
	}
	if _, err := svc.Register("user@example.com", "longenoughpass", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("password without digit want ErrWeakPassword got %v", err)
	}
}

func TestLoginRejections(t *testing.T) {
	svc, db := setupAuthServiceTest(t)

	if _, err := svc.Register("user@example.com", "password123", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, _, _, err := svc.Login("nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.Login("user@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}

	if err := db.Model(&models.User{}).Where("email = ?", "user@example.com").
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := svc.Login("user@example.com", "password123"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user want ErrUserDisabled got %v", err)
	}
}

func TestChangePasswordInvalidatesOldTokens(t *testing.T) {
	svc, db := setupAuthServiceTest(t)

	user, err := svc.Register("user@example.com", "password123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "wrong-password", "newpassword456"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong old password want ErrInvalidPassword got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "password123", "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak new password want ErrWeakPassword got %v", err)
	}

	if err := svc.ChangePassword(user.ID, "password123", "newpassword456"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.TokenVersion != user.TokenVersion+1 {
		t.Fatalf("token version want %d got %d", user.TokenVersion+1, reloaded.TokenVersion)
	}
	if reloaded.TokenInvalidBefore == nil {
		t.Fatalf("change password should stamp token_invalid_before")
	}

	if _, _, _, err := svc.Login("user@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should stop working")
	}
	if _, _, _, err := svc.Login("user@example.com", "newpassword456"); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}
}

func TestParseJWTRejectsTampering(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	user := &models.User{ID: 1, Email: "user@example.com", Role: constants.UserRoleUser}
	token, _, err := svc.GenerateJWT(user)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	if _, err := svc.ParseJWT(token + "x"); err == nil {
		t.Fatalf("tampered token should be rejected")
	}

	other := NewAuthService(func() *config.Config {
		cfg := &config.Config{}
		cfg.JWT.SecretKey = "another-secret-key-entirely-different"
		cfg.JWT.ExpireHours = 24
		return cfg
	}(), nil)
	if _, err := other.ParseJWT(token); err == nil {
		t.Fatalf("token signed with another secret should be rejected")
	}
}

func TestValidatePasswordPolicyMatrix(t *testing.T) {
	policy := config.PasswordPolicyConfig{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	cases := []struct {
		password string
		wantErr  bool
	}{
		{"Aa1!aaaa", false},
		{"Aa1!a", true},
		{"aa1!aaaa", true},
		{"AA1!AAAA", true},
		{"Aaa!aaaa", true},
		{"Aa1aaaaa", true},
	}
	for _, tc := range cases {
		err := validatePassword(policy, tc.password)
		if tc.wantErr && !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("password %q want ErrWeakPassword got %v", tc.password, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("password %q should pass, got %v", tc.password, err)
		}
	}

	// 空策略不做任何限制
	if err := validatePassword(config.PasswordPolicyConfig{}, "x"); err != nil {
		t.Fatalf("empty policy should accept anything, got %v", err)
	}
}
