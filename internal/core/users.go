package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/workchat/internal/logger"
	"github.com/workchat/internal/model"
	"github.com/workchat/internal/store"
)

// Profile возвращает публичный профиль любого пользователя, включая
// удалённых: у тех сохраняются только имя-заглушка и идентификатор.
func (s *Service) Profile(ctx context.Context, userID int64) (model.UserPublic, error) {
	u, err := s.store.User(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return model.UserPublic{}, badRequest("user does not exist")
	}
	if err != nil {
		return model.UserPublic{}, fmt.Errorf("core.Profile: %w", err)
	}
	return u.ToPublic(), nil
}

// AllUsers возвращает профили всех неудалённых пользователей.
func (s *Service) AllUsers(ctx context.Context) ([]model.UserPublic, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("core.AllUsers: %w", err)
	}
	out := make([]model.UserPublic, 0, len(users))
	for _, u := range users {
		if u.Removed {
			continue
		}
		out = append(out, u.ToPublic())
	}
	return out, nil
}

// SetName меняет имя и фамилию текущего пользователя.
func (s *Service) SetName(ctx context.Context, userID int64, firstName, lastName string) error {
	if l := len(firstName); l < 1 || l > maxNameLen {
		return badRequestf("first name must be 1-%d characters", maxNameLen)
	}
	if l := len(lastName); l < 1 || l > maxNameLen {
		return badRequestf("last name must be 1-%d characters", maxNameLen)
	}
	err := s.store.UpdateUser(ctx, userID, func(u *model.User) error {
		u.FirstName = firstName
		u.LastName = lastName
		return nil
	})
	if err != nil {
		return fmt.Errorf("core.SetName: %w", err)
	}
	return nil
}

// SetEmail меняет адрес почты. Адрес должен быть валидным и свободным.
func (s *Service) SetEmail(ctx context.Context, userID int64, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRx.MatchString(email) {
		return badRequest("invalid email")
	}
	other, err := s.store.UserByEmail(ctx, email)
	if err == nil && other.ID != userID {
		return badRequest("email already in use")
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("core.SetEmail: %w", err)
	}
	err = s.store.UpdateUser(ctx, userID, func(u *model.User) error {
		u.Email = email
		return nil
	})
	if err != nil {
		return fmt.Errorf("core.SetEmail: %w", err)
	}
	return nil
}

// SetHandle меняет ник. Ник свободной формы тут не разрешён: только строчные
// буквы и цифры, 3-20 символов.
func (s *Service) SetHandle(ctx context.Context, userID int64, handle string) error {
	if l := len(handle); l < 3 || l > maxHandleLen {
		return badRequestf("handle must be 3-%d characters", maxHandleLen)
	}
	for _, r := range handle {
		if !unicode.IsLower(r) && !unicode.IsDigit(r) {
			return badRequest("handle must contain only lowercase letters and digits")
		}
	}
	other, err := s.store.UserByHandle(ctx, handle)
	if err == nil && other.ID != userID {
		return badRequest("handle already in use")
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("core.SetHandle: %w", err)
	}
	err = s.store.UpdateUser(ctx, userID, func(u *model.User) error {
		u.Handle = handle
		return nil
	})
	if err != nil {
		return fmt.Errorf("core.SetHandle: %w", err)
	}
	return nil
}

// SetPhoto скачивает картинку по внешнему URL и делает её аватаром.
// Если скачать не удалось, ставит картинку по умолчанию.
func (s *Service) SetPhoto(ctx context.Context, userID int64, url string) error {
	if url == "" {
		return badRequest("photo url is empty")
	}
	stored, err := s.photos.Fetch(ctx, url, userID)
	if err != nil {
		logger.Errorf("core.SetPhoto: fetch %s: %v", url, err)
		stored = s.defaultPhotoURL
	}
	err = s.store.UpdateUser(ctx, userID, func(u *model.User) error {
		u.PhotoURL = stored
		return nil
	})
	if err != nil {
		return fmt.Errorf("core.SetPhoto: %w", err)
	}
	return nil
}
