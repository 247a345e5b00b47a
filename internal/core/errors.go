package core

import (
	"errors"
	"fmt"
)

// Два вида пользовательских ошибок. Каждая операция ядра либо возвращает
// результат, либо ровно одну из них (обёрнутую с причиной); проверки
// существования всегда идут раньше проверок прав, поэтому ошибка детерминирована.
var (
	// ErrBadRequest — некорректный ввод, несуществующая сущность или
	// нарушенное предусловие ("уже участник", "единственный владелец").
	ErrBadRequest = errors.New("bad request")
	// ErrForbidden — недействительный токен или нехватка прав у
	// аутентифицированного пользователя.
	ErrForbidden = errors.New("forbidden")
)

func badRequest(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrBadRequest)
}

func badRequestf(format string, a ...any) error {
	return badRequest(fmt.Sprintf(format, a...))
}

func forbidden(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrForbidden)
}

func forbiddenf(format string, a ...any) error {
	return forbidden(fmt.Sprintf(format, a...))
}

// wrapInternal оборачивает инфраструктурные ошибки именем операции; доменные
// (bad request / forbidden), в том числе вернувшиеся из замыкания обновления,
// проходят как есть.
func wrapInternal(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrForbidden) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
