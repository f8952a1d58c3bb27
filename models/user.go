package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Email     string    `gorm:"size:100;not null;unique" json:"email"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Password  string    `gorm:"size:255;not null" json:"password,omitempty"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

/*
caches:
	User:$email
*/

func (u *User) BeforeCreate(tx *gorm.DB) error {
	newId(&u.ID)
	return nil
}

func (u User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey(userCacheKey(u.Email))
}

func userCacheKey(email string) string {
	return "User:" + email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) PrepareGive() {
	u.Password = ""
}

type LoginInfo struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
}

// issueTokens mints an access token and stores a fresh refresh token.
func issueTokens(ctx context.Context, user *User) (*LoginInfo, error) {
	accessToken, err := utils.JwtGenerate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken := uuid.NewString()
	if err := sessionStore.Save(ctx, refreshToken, Session{UserId: user.ID, Email: user.Email}, utils.RefreshTokenLifespan()); err != nil {
		return nil, err
	}
	user.PrepareGive()
	return &LoginInfo{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(utils.AccessTokenLifespan() / time.Second),
		User:         user,
	}, nil
}

func Signup(ctx context.Context, input *NewUser) (*LoginInfo, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	user, err := CreateUser(ctx, input)
	if err != nil {
		return nil, err
	}
	return issueTokens(ctx, user)
}

// CreateUser stores a new login without opening a session.
func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := User{
		Email:    normalizeEmail(input.Email),
		Name:     input.Name,
		Password: hashed,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil, utils.ErrDuplicateEmail
		}
		logStoreError(ctx, "CreateUser", user.Email, err)
		return nil, err
	}
	return &user, nil
}

// SetUserPassword changes the password of an existing login.
func SetUserPassword(ctx context.Context, email string, password string) (*User, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	var user User
	if err := db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&user).Update("password", hashed).Error; err != nil {
		return nil, err
	}
	if err := user.RemoveInstanceRedis(); err != nil {
		return nil, err
	}
	user.PrepareGive()
	return &user, nil
}

func Login(ctx context.Context, email string, password string) (*LoginInfo, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, utils.ErrInvalidCredentials
	}

	user := User{}
	exists, err := config.GetRedisObject(userCacheKey(email), &user)
	if err != nil {
		return nil, err
	}
	if !exists {
		db, err := getDB()
		if err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.ErrInvalidCredentials
			}
			logStoreError(ctx, "Login", email, err)
			return nil, err
		}
		if err := config.SetRedisObject(userCacheKey(email), &user, utils.GetCacheLifespan()); err != nil {
			return nil, err
		}
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}
	if !utils.DereferencePtr(user.IsActive, true) {
		return nil, utils.ErrUserDisabled
	}
	return issueTokens(ctx, &user)
}

// RefreshSession trades a refresh token for a new access token. The refresh
// token itself stays valid until it expires or is logged out.
func RefreshSession(ctx context.Context, refreshToken string) (*LoginInfo, error) {
	if refreshToken == "" {
		return nil, utils.ErrNotLoggedIn
	}
	session, err := sessionStore.Lookup(ctx, refreshToken)
	if err != nil {
		config.LogError(config.GetLogger(), "models", "RefreshSession", "lookup refresh token", nil, err)
		return nil, utils.ErrSessionExpired
	}
	if session == nil {
		return nil, utils.ErrSessionExpired
	}
	accessToken, err := utils.JwtGenerate(session.UserId, session.Email)
	if err != nil {
		return nil, err
	}
	return &LoginInfo{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(utils.AccessTokenLifespan() / time.Second),
		User:         &User{ID: session.UserId, Email: session.Email},
	}, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	refreshToken, ok := utils.GetRefreshTokenFromContext(ctx)
	if !ok || refreshToken == "" {
		return false, utils.ErrNotLoggedIn
	}
	if err := sessionStore.Revoke(ctx, refreshToken); err != nil {
		return false, err
	}
	return true, nil
}
