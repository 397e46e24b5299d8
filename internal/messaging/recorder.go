package messaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/iudanet/vaultbot/internal/models"
)

// Call - запись об обращении к Recorder
type Call struct {
	Op   string
	Text string
	// Path - файл для SendDocument
	Path string
	Opts Options
	Ref  models.MessageRef
	// Alert - ответ на нажатие показан как всплывающее окно
	Alert bool
}

// Recorder - Messenger в памяти для тестов. Хранит текущий текст каждого
// сообщения и журнал всех вызовов. Ошибки можно подставить через хуки.
type Recorder struct {
	EditErr   func(ref models.MessageRef) error
	DeleteErr func(ref models.MessageRef, attempt int) error
	messages  map[models.MessageRef]string
	deletes   map[models.MessageRef]int
	calls     []Call
	nextID    int
	mu        sync.Mutex
}

// NewRecorder создает пустой Recorder
func NewRecorder() *Recorder {
	return &Recorder{
		messages: make(map[models.MessageRef]string),
		deletes:  make(map[models.MessageRef]int),
	}
}

// Send сохраняет сообщение и возвращает его адрес
func (r *Recorder) Send(_ context.Context, chatID int64, text string, opts Options) (models.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	ref := models.MessageRef{ChatID: chatID, MessageID: r.nextID}
	r.messages[ref] = text
	r.calls = append(r.calls, Call{Op: "send", Ref: ref, Text: text, Opts: opts})
	return ref, nil
}

// Edit заменяет текст сообщения
func (r *Recorder) Edit(_ context.Context, ref models.MessageRef, text string, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Op: "edit", Ref: ref, Text: text, Opts: opts})
	if r.EditErr != nil {
		if err := r.EditErr(ref); err != nil {
			return err
		}
	}
	if _, ok := r.messages[ref]; !ok {
		return fmt.Errorf("edit %d: %w", ref.MessageID, ErrMessageNotFound)
	}
	r.messages[ref] = text
	return nil
}

// Delete удаляет сообщение
func (r *Recorder) Delete(_ context.Context, ref models.MessageRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deletes[ref]++
	r.calls = append(r.calls, Call{Op: "delete", Ref: ref})
	if r.DeleteErr != nil {
		if err := r.DeleteErr(ref, r.deletes[ref]); err != nil {
			return err
		}
	}
	if _, ok := r.messages[ref]; !ok {
		return fmt.Errorf("delete %d: %w", ref.MessageID, ErrMessageNotFound)
	}
	delete(r.messages, ref)
	return nil
}

// Text возвращает текущий текст сообщения
func (r *Recorder) Text(ref models.MessageRef) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text, ok := r.messages[ref]
	return text, ok
}

// Calls возвращает копию журнала вызовов с операцией op (все, если op пустой)
func (r *Recorder) Calls(op string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Call
	for _, c := range r.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Forget удаляет сообщение в обход журнала, имитируя удаление пользователем
func (r *Recorder) Forget(ref models.MessageRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, ref)
}

// Put регистрирует сообщение, отправленное вне Recorder
func (r *Recorder) Put(ref models.MessageRef, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[ref] = text
	if ref.MessageID > r.nextID {
		r.nextID = ref.MessageID
	}
}

// SendDocument записывает отправку файла
func (r *Recorder) SendDocument(_ context.Context, chatID int64, path, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "document", Ref: models.MessageRef{ChatID: chatID}, Path: path, Text: caption})
	return nil
}

// AnswerCallback записывает ответ на нажатие кнопки
func (r *Recorder) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "answer", Path: callbackID, Text: text, Alert: alert})
	return nil
}
