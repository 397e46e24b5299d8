package disclosure

import (
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/models"
	"github.com/iudanet/vaultbot/internal/scheduler"
)

// Task - одно показанное сообщение с секретом и его расписание
type Task struct {
	ExpiresAt  time.Time
	rewriteJob scheduler.Handle
	deleteJob  scheduler.Handle
	content    string
	RecordID   string
	opts       messaging.Options
	Ref        models.MessageRef
	Interval   time.Duration
	remaining  time.Duration
	rewrites   int
	mu         sync.Mutex
	// editMu удерживается на время редактирования сообщения
	editMu    sync.Mutex
	cancelled bool
	// done выставляется при первой попытке удаления; после этого задача
	// больше не редактирует и не удаляет сообщение повторно
	done bool
}

// Remaining возвращает оставшееся время по последнему обновлению
func (t *Task) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Rewrites возвращает количество успешных обновлений отсчета
func (t *Task) Rewrites() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rewrites
}

// Cancelled сообщает, что задача отменена
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Done сообщает, что удаление уже выполнялось
func (t *Task) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// active должен вызываться под t.mu
func (t *Task) active() bool {
	return !t.cancelled && !t.done
}

// stopJobs должен вызываться под t.mu
func (t *Task) stopJobs() {
	if t.rewriteJob != nil {
		t.rewriteJob.Cancel()
		t.rewriteJob = nil
	}
	if t.deleteJob != nil {
		t.deleteJob.Cancel()
		t.deleteJob = nil
	}
}

// Annotate добавляет к тексту отметку об оставшемся времени
func Annotate(content string, remaining time.Duration) string {
	return fmt.Sprintf("%s\n\n⏱ Сообщение будет автоматически удалено через %d секунд", content, seconds(remaining))
}

func seconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
