package storage

import "errors"

// Общие ошибки хранилищ
var (
	// ErrCredentialNotFound - запись не найдена (или уже удалена)
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrMetaNotFound - служебный ключ хранилища не задан
	ErrMetaNotFound = errors.New("meta key not found")

	// ErrInvalidCredential - запись не прошла проверку перед сохранением
	ErrInvalidCredential = errors.New("invalid credential")
)
