package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fupan-admin/internal/config"
	"github.com/fupan-admin/internal/models"
	"github.com/fupan-admin/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("migrate admin failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "unit-test-secret-key-0123456789abcdef"
	cfg.JWT.ExpireHours = 2
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireNumber: true,
	}
	return NewAuthService(cfg, repository.NewAdminRepository(db)), db
}

func createTestAdmin(t *testing.T, svc *AuthService, db *gorm.DB, username, password string) *models.Admin {
	t.Helper()
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := &models.Admin{Username: username, PasswordHash: hash}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return admin
}

func TestLoginReturnsSameErrorForUnknownUserAndBadPassword(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	createTestAdmin(t, svc, db, "ops", "Right-Pass1")

	_, _, _, unknownErr := svc.Login("nobody", "Right-Pass1")
	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown user want ErrInvalidCredentials got %v", unknownErr)
	}

	_, _, _, badPassErr := svc.Login("ops", "Wrong-Pass1")
	if !errors.Is(badPassErr, ErrInvalidCredentials) {
		t.Fatalf("bad password want ErrInvalidCredentials got %v", badPassErr)
	}

	// 两种失败必须对外不可区分
	if unknownErr.Error() != badPassErr.Error() {
		t.Fatalf("error messages differ: %q vs %q", unknownErr.Error(), badPassErr.Error())
	}
}

func TestLoginIssuesParsableToken(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createTestAdmin(t, svc, db, "ops", "Right-Pass1")

	loggedIn, token, expiresAt, err := svc.Login("ops", "Right-Pass1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.ID != admin.ID {
		t.Fatalf("admin id want %d got %d", admin.ID, loggedIn.ID)
	}
	if expiresAt.IsZero() {
		t.Fatal("expires_at is zero")
	}
	if loggedIn.LastLoginAt == nil {
		t.Fatal("last_login_at not updated")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "ops" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.TokenVersion != admin.TokenVersion {
		t.Fatalf("token version want %d got %d", admin.TokenVersion, claims.TokenVersion)
	}
}

func TestLogoutInvalidatesIssuedTokens(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createTestAdmin(t, svc, db, "ops", "Right-Pass1")

	_, token, _, err := svc.Login("ops", "Right-Pass1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}

	if err := svc.Logout(admin.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	var stored models.Admin
	if err := db.First(&stored, admin.ID).Error; err != nil {
		t.Fatalf("load admin failed: %v", err)
	}
	if stored.TokenVersion != claims.TokenVersion+1 {
		t.Fatalf("token version want %d got %d", claims.TokenVersion+1, stored.TokenVersion)
	}
	if stored.TokenInvalidBefore == nil {
		t.Fatal("token_invalid_before not set")
	}
}

func TestChangePasswordEnforcesPolicyAndOldPassword(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createTestAdmin(t, svc, db, "ops", "Right-Pass1")

	if err := svc.ChangePassword(admin.ID, "Wrong-Pass1", "Another-Pass2"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong old password want ErrInvalidPassword got %v", err)
	}

	if err := svc.ChangePassword(admin.ID, "Right-Pass1", "weak"); !IsPasswordPolicyError(err) {
		t.Fatalf("weak new password want policy error got %v", err)
	}

	oldVersion := admin.TokenVersion
	if err := svc.ChangePassword(admin.ID, "Right-Pass1", "Another-Pass2"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var stored models.Admin
	if err := db.First(&stored, admin.ID).Error; err != nil {
		t.Fatalf("load admin failed: %v", err)
	}
	if stored.TokenVersion != oldVersion+1 {
		t.Fatalf("token version want %d got %d", oldVersion+1, stored.TokenVersion)
	}
	if err := svc.VerifyPassword(stored.PasswordHash, "Another-Pass2"); err != nil {
		t.Fatalf("new password must verify: %v", err)
	}
	if err := svc.VerifyPassword(stored.PasswordHash, "Right-Pass1"); err == nil {
		t.Fatal("old password must stop working")
	}
}
