package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/internal/utils"
	"github.com/huangang/gymdesk/pkg/logger"
	"gorm.io/gorm"
)

const (
	configAccessTokenHours  = "auth_access_token_expire_hours"
	configRefreshTokenHours = "auth_refresh_token_expire_hours"
	defaultRefreshHours     = 720
)

type AuthService struct {
	db        *gorm.DB
	provider  AuthProvider
	authCfg   *config.AuthConfig
	jwtConfig *config.JWTConfig
	configSvc *SystemConfigService
	audit     *AuditLogger
}

func NewAuthService(db *gorm.DB, provider AuthProvider, authCfg *config.AuthConfig, jwtCfg *config.JWTConfig, audit *AuditLogger) *AuthService {
	return &AuthService{
		db:        db,
		provider:  provider,
		authCfg:   authCfg,
		jwtConfig: jwtCfg,
		configSvc: NewSystemConfigService(db),
		audit:     audit,
	}
}

// NewAuthProvider picks the provider named in config.
func NewAuthProvider(db *gorm.DB, cfg *config.Config) AuthProvider {
	if cfg.Auth.Provider == "ldap" {
		return NewLDAPAuthProvider(&cfg.LDAP)
	}
	return NewLocalAuthProvider(db, &cfg.Auth)
}

// RegisterRequest carries an optional role; anything other than admin or
// member falls back to member.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

type RefreshResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
}

// Register signs up a principal and stores its user record. The requested
// role is honoured only when role selection is enabled.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	email := utils.NormalizeEmail(req.Email)
	if err := validate(&RegisterRequest{Email: email, Password: req.Password}); err != nil {
		return nil, err
	}

	role := models.RoleMember
	if s.authCfg.AllowRoleSelection && (req.Role == models.RoleAdmin || req.Role == models.RoleMember) {
		role = req.Role
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		principal, err := s.signUp(ctx, tx, email, req.Password)
		if err != nil {
			return err
		}

		now := time.Now()
		user = &models.User{
			UID:       principal.UID,
			Email:     principal.Email,
			Role:      role,
			Status:    models.StatusActive,
			AuthType:  s.provider.Name(),
			LastLogin: &now,
		}
		if err := tx.Create(user).Error; err != nil {
			return storeError("create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, sessionFor(user), ActionRegister, models.Details{"email": user.Email, "role": role})
	return user, nil
}

// signUp creates the credential inside tx when the provider keeps credentials
// in the application database, so a failed user insert rolls it back.
func (s *AuthService) signUp(ctx context.Context, tx *gorm.DB, email, password string) (*Principal, error) {
	if local, ok := s.provider.(*LocalAuthProvider); ok {
		return local.signUp(ctx, tx, email, password)
	}
	return s.provider.SignUp(ctx, email, password)
}

// Login signs in, resolves the caller's role and issues tokens.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	email := utils.NormalizeEmail(req.Email)
	if err := validate(&LoginRequest{Email: email, Password: req.Password}); err != nil {
		return nil, err
	}

	principal, err := s.provider.SignIn(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if user.Status != models.StatusActive {
		return nil, authError(AuthInvalidCredential, errors.New("user is disabled"))
	}

	result, err := s.issueTokens(ctx, user, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	sess := sessionFor(user)
	s.audit.Record(ctx, sess, ActionLogin, models.Details{"email": user.Email, "role": user.Role})
	if !user.IsAdmin() {
		s.audit.Record(ctx, sess, ActionMemberLogin, models.Details{"email": user.Email})
	}
	return result, nil
}

// Resolve finds the user bound to a principal, creating a member account on
// first sign-in, and stamps last_login. The role it returns only chooses the
// dashboard; admin routes check it again on every request.
func (s *AuthService) Resolve(ctx context.Context, p *Principal) (*models.User, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()

	var user models.User
	err := db.Where("uid = ?", p.UID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			UID:       p.UID,
			Email:     p.Email,
			Role:      models.RoleMember,
			Status:    models.StatusActive,
			AuthType:  s.provider.Name(),
			LastLogin: &now,
		}
		if err := db.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, duplicateError("email %s is bound to another account", p.Email)
			}
			return nil, storeError("create user", err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, storeError("find user", err)
	}

	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		return nil, storeError("update last login", err)
	}
	user.LastLogin = &now
	return &user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, clientIP, userAgent string) (*LoginResult, error) {
	accessHours := s.getAccessTokenExpireHours()
	refreshHours := s.getRefreshTokenExpireHours()

	token, err := utils.GenerateToken(user.ID, user.UID, user.Email, user.Role, accessHours)
	if err != nil {
		return nil, backendError("sign token", err)
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, backendError("generate refresh token", err)
	}

	refreshExpireAt := time.Now().Add(time.Duration(refreshHours) * time.Hour)
	record := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   refreshHash,
		ExpiresAt:   refreshExpireAt,
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, storeError("store refresh token", err)
	}

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  time.Now().Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: refreshExpireAt,
		User:            user,
	}, nil
}

// Refresh rotates a refresh token: the old one is revoked and linked to its
// replacement.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, clientIP, userAgent string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, validationError("refresh token required")
	}

	db := s.db.WithContext(ctx)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ?", hashRefreshToken(refreshToken)).Take(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authError(AuthInvalidCredential, errors.New("invalid refresh token"))
		}
		return nil, storeError("find refresh token", err)
	}
	if stored.RevokedAt != nil {
		return nil, authError(AuthInvalidCredential, errors.New("refresh token revoked"))
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, authError(AuthInvalidCredential, errors.New("refresh token expired"))
	}

	var user models.User
	if err := db.Take(&user, stored.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authError(AuthInvalidCredential, errors.New("user not found"))
		}
		return nil, storeError("find user", err)
	}
	if user.Status != models.StatusActive {
		return nil, authError(AuthInvalidCredential, errors.New("user is disabled"))
	}

	accessHours := s.getAccessTokenExpireHours()
	refreshHours := s.getRefreshTokenExpireHours()

	newAccessToken, err := utils.GenerateToken(user.ID, user.UID, user.Email, user.Role, accessHours)
	if err != nil {
		return nil, backendError("sign token", err)
	}
	newRefreshToken, newRefreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, backendError("generate refresh token", err)
	}

	now := time.Now()
	newRefresh := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   newRefreshHash,
		ExpiresAt:   now.Add(time.Duration(refreshHours) * time.Hour),
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newRefresh).Error; err != nil {
			return err
		}
		return tx.Model(&stored).Updates(map[string]interface{}{
			"revoked_at":           now,
			"replaced_by_token_id": newRefresh.ID,
		}).Error
	})
	if err != nil {
		return nil, storeError("rotate refresh token", err)
	}

	return &RefreshResult{
		AccessToken:     newAccessToken,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    newRefreshToken,
		RefreshExpireAt: newRefresh.ExpiresAt,
	}, nil
}

// Logout revokes the refresh token, if any, and records the sign-out.
func (s *AuthService) Logout(ctx context.Context, sess Session, refreshToken string) error {
	if refreshToken != "" {
		err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
			Where("token_hash = ? AND revoked_at IS NULL", hashRefreshToken(refreshToken)).
			Update("revoked_at", time.Now()).Error
		if err != nil {
			return storeError("revoke refresh token", err)
		}
	}

	action := ActionMemberLogout
	if sess.IsAdmin() {
		action = ActionLogout
	}
	s.audit.Record(ctx, sess, action, models.Details{"email": sess.Email})
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("user %d not found", userID)
		}
		return nil, storeError("find user", err)
	}
	return &user, nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// ChangePassword updates a local credential.
func (s *AuthService) ChangePassword(ctx context.Context, sess Session, req *ChangePasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	if _, ok := s.provider.(*LocalAuthProvider); !ok {
		return validationError("directory accounts cannot change password here")
	}

	db := s.db.WithContext(ctx)
	var cred models.Credential
	if err := db.Where("uid = ?", sess.UID).Take(&cred).Error; err != nil {
		return storeError("find credential", err)
	}
	if !utils.CheckPassword(req.OldPassword, cred.PasswordHash) {
		return authError(AuthInvalidCredential, errors.New("incorrect old password"))
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return validationError("new_password must be at most %d bytes", utils.MaxPasswordBytes)
	}
	if err != nil {
		return backendError("hash password", err)
	}
	return storeError("update credential", db.Model(&cred).Update("password_hash", hash).Error)
}

// EnsureAdmin creates the configured bootstrap admin on first start when the
// local provider is in use and no admin exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	local, ok := s.provider.(*LocalAuthProvider)
	if !ok || s.authCfg.AdminEmail == "" || s.authCfg.AdminPassword == "" {
		return nil
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := utils.NormalizeEmail(s.authCfg.AdminEmail)
	principal, err := local.SignUp(ctx, email, s.authCfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		UID:      principal.UID,
		Email:    principal.Email,
		Role:     models.RoleAdmin,
		Status:   models.StatusActive,
		AuthType: local.Name(),
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	logger.Infof("[Auth] Created bootstrap admin %s", admin.Email)
	return nil
}

func (s *AuthService) getAccessTokenExpireHours() int {
	defaultHours := s.jwtConfig.ExpireHour
	if defaultHours <= 0 {
		defaultHours = 24
	}
	value := s.configSvc.GetWithDefault(configAccessTokenHours, strconv.Itoa(defaultHours))
	hours, err := strconv.Atoi(value)
	if err != nil || hours <= 0 {
		return defaultHours
	}
	return hours
}

func (s *AuthService) getRefreshTokenExpireHours() int {
	value := s.configSvc.GetWithDefault(configRefreshTokenHours, strconv.Itoa(defaultRefreshHours))
	hours, err := strconv.Atoi(value)
	if err != nil || hours <= 0 {
		return defaultRefreshHours
	}
	return hours
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	return token, hashRefreshToken(token), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func sessionFor(user *models.User) Session {
	return Session{UserID: user.ID, UID: user.UID, Email: user.Email, Role: user.Role}
}
