package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/workchat/internal/logger"
	"github.com/workchat/internal/model"
	"github.com/workchat/internal/session"
	"github.com/workchat/internal/store"
)

var emailRx = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	minPasswordLen = 6
	maxNameLen     = 50
	maxHandleLen   = 20
)

// AuthResult — результат успешного входа или регистрации.
type AuthResult struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
}

// Register создаёт пользователя и открывает сессию. Первый зарегистрированный
// пользователь становится владельцем воркспейса.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRx.MatchString(email) {
		return AuthResult{}, badRequest("invalid email")
	}
	if len(password) < minPasswordLen {
		return AuthResult{}, badRequestf("password must be at least %d characters", minPasswordLen)
	}
	if l := len(firstName); l < 1 || l > maxNameLen {
		return AuthResult{}, badRequestf("first name must be 1-%d characters", maxNameLen)
	}
	if l := len(lastName); l < 1 || l > maxNameLen {
		return AuthResult{}, badRequestf("last name must be 1-%d characters", maxNameLen)
	}

	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return AuthResult{}, badRequest("email already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("core.Register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("core.Register: hash password: %w", err)
	}

	handle, err := s.generateHandle(ctx, firstName, lastName)
	if err != nil {
		return AuthResult{}, fmt.Errorf("core.Register: %w", err)
	}

	existing, err := s.store.Users(ctx)
	if err != nil {
		return AuthResult{}, fmt.Errorf("core.Register: %w", err)
	}
	tier := model.TierMember
	now := s.now().Unix()
	if len(existing) == 0 {
		tier = model.TierOwner
		// первая регистрация открывает воркспейс: ряды статистики
		// начинаются с нулевой точки
		err := s.store.UpdateWorkspace(ctx, func(w *model.Workspace) error {
			w.ChannelsExist = bumpSeries(w.ChannelsExist, 0, now)
			w.DMsExist = bumpSeries(w.DMsExist, 0, now)
			w.MessagesExist = bumpSeries(w.MessagesExist, 0, now)
			return nil
		})
		if err != nil {
			return AuthResult{}, fmt.Errorf("core.Register: %w", err)
		}
	}

	id, err := s.store.NextID(ctx)
	if err != nil {
		return AuthResult{}, fmt.Errorf("core.Register: %w", err)
	}
	u := &model.User{
		ID:             id,
		Email:          email,
		FirstName:      firstName,
		LastName:       lastName,
		Handle:         handle,
		PasswordHash:   hash,
		Tier:           tier,
		PhotoURL:       s.defaultPhotoURL,
		ChannelsJoined: []model.StatPoint{{Count: 0, At: now}},
		DMsJoined:      []model.StatPoint{{Count: 0, At: now}},
		MessagesSent:   []model.StatPoint{{Count: 0, At: now}},
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return AuthResult{}, fmt.Errorf("core.Register: %w", err)
	}

	token, err := s.openSession(ctx, id)
	if err != nil {
		return AuthResult{}, fmt.Errorf("core.Register: %w", err)
	}
	return AuthResult{Token: token, UserID: id}, nil
}

// generateHandle строит ник из имени и фамилии: строчные буквы и цифры,
// обрезка до 20 символов; при коллизии дописывается числовой суффикс
// (суффикс может удлинить ник сверх лимита).
func (s *Service) generateHandle(ctx context.Context, firstName, lastName string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(firstName + lastName) {
		if unicode.IsLower(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if len(base) > maxHandleLen {
		base = base[:maxHandleLen]
	}
	handle := base
	for n := 0; ; n++ {
		if n > 0 {
			handle = base + strconv.Itoa(n-1)
		}
		_, err := s.store.UserByHandle(ctx, handle)
		if errors.Is(err, store.ErrNotFound) {
			return handle, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// Login проверяет пару email/пароль и открывает новую сессию.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, badRequest("email not registered")
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("core.Login: %w", err)
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return AuthResult{}, badRequest("incorrect password")
	}
	token, err := s.openSession(ctx, u.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("core.Login: %w", err)
	}
	return AuthResult{Token: token, UserID: u.ID}, nil
}

// Logout закрывает одну сессию по токену.
func (s *Service) Logout(ctx context.Context, token string) error {
	if _, err := s.sessions.UserByToken(ctx, token); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return forbidden("invalid token")
		}
		return fmt.Errorf("core.Logout: %w", err)
	}
	if err := s.sessions.DeleteToken(ctx, token); err != nil {
		return fmt.Errorf("core.Logout: %w", err)
	}
	return nil
}

// AuthUserID резолвит токен в идентификатор пользователя.
func (s *Service) AuthUserID(ctx context.Context, token string) (int64, error) {
	id, err := s.sessions.UserByToken(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return 0, forbidden("invalid token")
	}
	if err != nil {
		return 0, fmt.Errorf("core.AuthUserID: %w", err)
	}
	return id, nil
}

// RequestPasswordReset шлёт код сброса на почту. Отвечает успехом независимо
// от того, существует ли адрес, чтобы не раскрывать базу пользователей.
// Все активные сессии пользователя закрываются.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("core.RequestPasswordReset: %w", err)
	}

	code := uuid.NewString()
	if err := s.sessions.SaveResetCode(ctx, code, u.ID); err != nil {
		return fmt.Errorf("core.RequestPasswordReset: %w", err)
	}
	if err := s.sessions.DeleteUserTokens(ctx, u.ID); err != nil {
		return fmt.Errorf("core.RequestPasswordReset: %w", err)
	}

	body := fmt.Sprintf("Hello %s,\n\nYour password reset code is: %s\n\nThe code expires in 15 minutes.", u.FirstName, code)
	if err := s.mailer.Send(ctx, u.Email, "Password reset", body); err != nil {
		logger.Errorf("core.RequestPasswordReset: send mail to %s: %v", u.Email, err)
	}
	return nil
}

// ResetPassword меняет пароль по одноразовому коду из письма.
func (s *Service) ResetPassword(ctx context.Context, code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return badRequestf("password must be at least %d characters", minPasswordLen)
	}
	userID, err := s.sessions.UserByResetCode(ctx, code)
	if errors.Is(err, session.ErrNotFound) {
		return badRequest("invalid reset code")
	}
	if err != nil {
		return fmt.Errorf("core.ResetPassword: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("core.ResetPassword: hash password: %w", err)
	}
	err = s.store.UpdateUser(ctx, userID, func(u *model.User) error {
		u.PasswordHash = hash
		return nil
	})
	if err != nil {
		return fmt.Errorf("core.ResetPassword: %w", err)
	}
	if err := s.sessions.DeleteResetCode(ctx, code); err != nil {
		return fmt.Errorf("core.ResetPassword: %w", err)
	}
	return nil
}

func (s *Service) openSession(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	if err := s.sessions.SaveToken(ctx, token, userID); err != nil {
		return "", err
	}
	return token, nil
}
