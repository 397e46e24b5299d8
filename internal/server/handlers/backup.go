package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// BackupSender создает резервную копию и отправляет ее в чат
type BackupSender interface {
	Send(ctx context.Context, chatID int64) error
}

// BackupHandler запускает резервное копирование по запросу
type BackupHandler struct {
	backups BackupSender
	logger  *slog.Logger
	chatID  int64
}

// NewBackupHandler создает handler. chatID - чат оператора.
func NewBackupHandler(backups BackupSender, chatID int64, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{backups: backups, chatID: chatID, logger: logger}
}

// BackupResponse - результат запуска
type BackupResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Backup обрабатывает POST /api/v1/backup
func (h *BackupHandler) Backup(w http.ResponseWriter, r *http.Request) {
	subject, _ := GetSubject(r.Context())

	if err := h.backups.Send(r.Context(), h.chatID); err != nil {
		h.logger.Error("on-demand backup failed", "subject", subject, "error", err)
		writeJSON(w, http.StatusInternalServerError, BackupResponse{Status: "failed", Error: "backup failed"}, h.logger)
		return
	}

	h.logger.Info("on-demand backup sent", "subject", subject)
	writeJSON(w, http.StatusOK, BackupResponse{Status: "sent"}, h.logger)
}
