package session

import (
	"time"

	"github.com/iudanet/vaultbot/internal/generator"
	"github.com/iudanet/vaultbot/internal/models"
)

// Session - состояние диалога одного пользователя.
// Не синхронизирована: события одного пользователя обрабатываются последовательно.
type Session struct {
	LastAccess time.Time
	Scratch    map[string]string
	Draft      models.Draft
	EditingID  string
	Options    generator.Options
	UserID     int64
	State      State
}

func newSession(userID int64, opts generator.Options, now time.Time) *Session {
	return &Session{
		UserID:     userID,
		State:      Idle,
		Options:    opts,
		Scratch:    make(map[string]string),
		LastAccess: now,
	}
}

// Reset возвращает сессию в Idle, очищая черновик, цель редактирования и
// временные данные. Настройки генератора сохраняются.
func (s *Session) Reset() {
	s.State = Idle
	s.Draft = models.Draft{}
	s.EditingID = ""
	s.Scratch = make(map[string]string)
}

// IsEditing сообщает, что черновик относится к существующей записи
func (s *Session) IsEditing() bool {
	return s.EditingID != ""
}
