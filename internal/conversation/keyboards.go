package conversation

import (
	"strconv"
	"strings"

	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/models"
	"github.com/iudanet/vaultbot/internal/session"
)

// categoryRefPrefix отмечает аргумент-ссылку на категорию в Scratch сессии.
// Используется для названий, которые не помещаются в callback_data.
const categoryRefPrefix = "#"

func scratchCategoryKey(idx string) string {
	return "category:" + idx
}

// categoryButton создает кнопку перехода в категорию. Длинные названия
// сохраняются в Scratch, а кнопка несет только индекс.
func categoryButton(sess *session.Session, label, category string) messaging.Button {
	data := cbCategory + category
	if len(data) <= maxCallbackData {
		return messaging.Callback(label, data)
	}

	for key, value := range sess.Scratch {
		if value == category {
			if idx, ok := strings.CutPrefix(key, "category:"); ok {
				return messaging.Callback(label, cbCategoryIndex+idx)
			}
		}
	}

	idx := strconv.Itoa(len(sess.Scratch))
	sess.Scratch[scratchCategoryKey(idx)] = category
	return messaging.Callback(label, cbCategoryIndex+idx)
}

// resolveCategory возвращает название категории из аргумента события
func resolveCategory(sess *session.Session, arg string) (string, bool) {
	idx, ok := strings.CutPrefix(arg, categoryRefPrefix)
	if !ok {
		return arg, arg != ""
	}
	name, ok := sess.Scratch[scratchCategoryKey(idx)]
	return name, ok
}

func isFieldName(s string) bool {
	_, ok := models.ParseField(s)
	return ok && s == strings.ToLower(s)
}

var categoryEmojis = map[string]string{
	"Почта":           "💌",
	"Работа":          "💼",
	"Игры":            "🎮",
	"Финансы":         "💰",
	"Социальные сети": "👥",
	"Покупки":         "🛒",
	"Развлечения":     "🎬",
	"Другое":          "📝",
}

func categoryEmoji(category string) string {
	if e, ok := categoryEmojis[category]; ok {
		return e
	}
	return "📁"
}

var serviceEmojis = []struct {
	emoji    string
	keywords []string
}{
	{"📧", []string{"mail", "почта", "gmail"}},
	{"💼", []string{"работа", "job"}},
	{"🎮", []string{"игра", "game"}},
	{"💳", []string{"bank", "card", "pay"}},
	{"🌐", []string{"facebook", "instagram", "vk"}},
}

func serviceEmoji(service string) string {
	lower := strings.ToLower(service)
	for _, e := range serviceEmojis {
		for _, kw := range e.keywords {
			if strings.Contains(lower, kw) {
				return e.emoji
			}
		}
	}
	return "🔑"
}
