package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule - ежедневно в 03:00
const DefaultSchedule = "0 3 * * *"

const jobTimeout = 5 * time.Minute

// Scheduler запускает Service.Send по расписанию cron
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
}

// NewScheduler разбирает расписание в формате cron из пяти полей
func NewScheduler(svc *Service, chatID int64, expr string, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", expr, err)
	}

	c := cron.New()
	c.Schedule(schedule, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		logger.Info("scheduled backup started")
		if err := svc.Send(ctx, chatID); err != nil {
			logger.Error("scheduled backup failed", "error", err)
		}
	}))

	return &Scheduler{cron: c, schedule: schedule}, nil
}

// Start запускает планировщик в фоне
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения текущей копии
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Next возвращает время ближайшего запуска после from
func (s *Scheduler) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}
