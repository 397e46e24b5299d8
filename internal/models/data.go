package models

import (
	"strings"
	"time"
)

// Credential представляет сохраненную запись с учетными данными.
// Секрет хранится только в зашифрованном виде.
type Credential struct {
	CreatedAt       time.Time `json:"created_at"`       // CreatedAt время создания
	UpdatedAt       time.Time `json:"updated_at"`       // UpdatedAt время последнего изменения
	ID              string    `json:"id"`               // ID уникальный идентификатор записи (UUID)
	Category        string    `json:"category"`         // Category категория (например, "Почта", "Игры")
	Service         string    `json:"service"`          // Service название сервиса (например, "Gmail")
	Login           string    `json:"login"`            // Login логин или email
	EncryptedSecret string    `json:"encrypted_secret"` // EncryptedSecret пароль, зашифрованный SecretCipher
	URL             string    `json:"url"`              // URL опциональный адрес сервиса
}

// Draft - запись, которую пользователь заполняет в диалоге.
// Secret хранится в открытом виде только до сохранения.
type Draft struct {
	Category string `json:"category"`
	Service  string `json:"service"`
	Login    string `json:"login"`
	Secret   string `json:"-"`
	URL      string `json:"url"`
}

// IsZero сообщает, что черновик пуст
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// Field - редактируемое поле записи
type Field string

const (
	FieldCategory Field = "category"
	FieldService  Field = "service"
	FieldLogin    Field = "login"
	FieldPassword Field = "password"
	FieldURL      Field = "url"
)

// ParseField разбирает имя поля из callback данных
func ParseField(s string) (Field, bool) {
	switch f := Field(strings.ToLower(s)); f {
	case FieldCategory, FieldService, FieldLogin, FieldPassword, FieldURL:
		return f, true
	}
	return "", false
}

// MessageRef идентифицирует отправленное сообщение в чате
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}
