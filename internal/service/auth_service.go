package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/visualizer/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials 表示用户名或密码错误。
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthEvent 描述一次会话变化。
type AuthEvent struct {
	Username string
	SignedIn bool
}

// AuthService 负责后台登录校验，并在登录、退出时通知订阅者。
type AuthService struct {
	db *gorm.DB

	mu        sync.RWMutex
	listeners []func(AuthEvent)
}

// NewAuthService 构造 AuthService。
func NewAuthService(gdb *gorm.DB) *AuthService {
	return &AuthService{db: gdb}
}

// OnChange 注册会话变化回调，返回取消订阅函数。
func (s *AuthService) OnChange(fn func(AuthEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

// SignIn 校验用户名与密码，成功后广播登录事件。
func (s *AuthService) SignIn(ctx context.Context, username, password string) (db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return db.User{}, ErrInvalidCredentials
	}

	var user db.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.User{}, ErrInvalidCredentials
		}
		return db.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return db.User{}, ErrInvalidCredentials
	}

	s.emit(AuthEvent{Username: user.Username, SignedIn: true})
	return user, nil
}

// SignOut 广播退出事件，会话本身由调用方清理。
func (s *AuthService) SignOut(username string) {
	s.emit(AuthEvent{Username: username, SignedIn: false})
}

func (s *AuthService) emit(event AuthEvent) {
	s.mu.RLock()
	listeners := append([]func(AuthEvent){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		if fn != nil {
			fn(event)
		}
	}
}
