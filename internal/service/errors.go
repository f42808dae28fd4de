package service

import (
	"errors"
	"fmt"

	"yatube/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAuthRequired       = errors.New("authentication required")
	ErrNotOwner           = errors.New("not the author")
	ErrSelfFollow         = errors.New("cannot follow self")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionInvalid     = errors.New("account has been logged in elsewhere")
)

// ValidationError 表单校验失败，Message 直接展示给用户
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// notFound 把存储层的 ErrNotFound 转成 service.ErrNotFound，其他错误原样返回
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", what, ErrNotFound, err)
	}
	return err
}
