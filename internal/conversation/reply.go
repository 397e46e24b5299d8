package conversation

import "github.com/iudanet/vaultbot/internal/messaging"

// Outcome - итог обработки события
type Outcome int

const (
	// OutcomeShown - показан экран без изменения черновика
	OutcomeShown Outcome = iota
	// OutcomeAdvanced - ввод принят, диалог перешел дальше
	OutcomeAdvanced
	// OutcomeRejected - ввод не прошел проверку, состояние не изменилось
	OutcomeRejected
	// OutcomeUnknown - событие не поддерживается в текущем состоянии
	OutcomeUnknown
	// OutcomeReset - сессия сброшена в Idle
	OutcomeReset
	// OutcomeSaved - запись сохранена
	OutcomeSaved
	// OutcomeDeleted - запись удалена
	OutcomeDeleted
	// OutcomeNotFound - запись не найдена в хранилище
	OutcomeNotFound
	// OutcomeDecryptFailed - секрет записи не расшифровывается
	OutcomeDecryptFailed
	// OutcomeDisclosed - секрет показан через самоудаляющееся сообщение
	OutcomeDisclosed
)

var outcomeNames = [...]string{
	OutcomeShown:         "shown",
	OutcomeAdvanced:      "advanced",
	OutcomeRejected:      "rejected",
	OutcomeUnknown:       "unknown",
	OutcomeReset:         "reset",
	OutcomeSaved:         "saved",
	OutcomeDeleted:       "deleted",
	OutcomeNotFound:      "not_found",
	OutcomeDecryptFailed: "decrypt_failed",
	OutcomeDisclosed:     "disclosed",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "invalid"
	}
	return outcomeNames[o]
}

// Reply - что показать пользователю в ответ на событие.
// Для нажатий кнопок ответ заменяет исходное сообщение, для текста
// отправляется новым сообщением.
type Reply struct {
	Text     string
	Keyboard messaging.Keyboard
	Outcome  Outcome
	// Silent - обработчик уже отправил все сообщения сам
	Silent bool
}

// Options возвращает параметры отображения ответа
func (r Reply) Options() messaging.Options {
	return messaging.Options{Keyboard: r.Keyboard, HTML: true}
}

func reply(outcome Outcome, v view) Reply {
	return Reply{Text: v.text, Keyboard: v.keyboard, Outcome: outcome}
}
