package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/notes-bin/imagehoster/internal/model"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingCredentials = errors.New("username and password are required")
)

// UserStore is implemented by the redis and sqlite stores. CreateUser reports
// false when the username is already taken.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) (bool, error)
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByName(ctx context.Context, username string) (*model.User, error)
}

// Claims 是写入 JWT 的会话信息
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Auth struct {
	secret []byte
	users  UserStore
}

func NewAuth(secret string, users UserStore) *Auth {
	return &Auth{secret: []byte(secret), users: users}
}

func (a *Auth) Register(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	hashed, err := a.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  hashed,
		CreatedAt: time.Now(),
	}
	created, err := a.users.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrUsernameTaken
	}
	return user, nil
}

func (a *Auth) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (a *Auth) Login(ctx context.Context, username, password string, expiresIn time.Duration) (string, error) {
	user, err := a.users.GetUserByName(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return a.GenerateToken(user.ID, user.Username, expiresIn)
}

func (a *Auth) GenerateToken(userID, username string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseToken validates a signed token and returns its claims.
func (a *Auth) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a *Auth) ChangePassword(ctx context.Context, userID, newPassword string) error {
	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashed, err := a.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	return a.users.SaveUser(ctx, user)
}
