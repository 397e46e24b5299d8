package conversation

import (
	"strconv"
	"strings"
)

// EventKind - тип входного события
type EventKind int

const (
	// EvUnknown - нераспознанные callback-данные
	EvUnknown EventKind = iota
	// EvText - свободный текст пользователя
	EvText

	EvBackToMain
	EvStartAdd
	EvSkipURL
	EvChooseGenerate
	EvChooseManual
	EvPickLength
	EvSave
	EvRevealDraft
	EvBackToChoice

	EvOpenGenerator
	EvOpenLengthPicker
	EvSetLength
	EvToggleUppercase
	EvToggleDigits
	EvToggleSymbols
	EvGenerate

	EvEditRecord
	EvEditField
	EvBackToEdit
	EvClearURL

	EvViewCategories
	EvViewCategory
	EvViewRecord
	EvDeleteRecord
	EvConfirmDelete
	EvSettings

	eventKindCount
)

var eventNames = [...]string{
	EvUnknown:          "unknown",
	EvText:             "text",
	EvBackToMain:       "back_to_main",
	EvStartAdd:         "start_add",
	EvSkipURL:          "skip_url",
	EvChooseGenerate:   "choose_generate",
	EvChooseManual:     "choose_manual",
	EvPickLength:       "pick_length",
	EvSave:             "save",
	EvRevealDraft:      "reveal_draft",
	EvBackToChoice:     "back_to_choice",
	EvOpenGenerator:    "open_generator",
	EvOpenLengthPicker: "open_length_picker",
	EvSetLength:        "set_length",
	EvToggleUppercase:  "toggle_uppercase",
	EvToggleDigits:     "toggle_digits",
	EvToggleSymbols:    "toggle_symbols",
	EvGenerate:         "generate",
	EvEditRecord:       "edit_record",
	EvEditField:        "edit_field",
	EvBackToEdit:       "back_to_edit",
	EvClearURL:         "clear_url",
	EvViewCategories:   "view_categories",
	EvViewCategory:     "view_category",
	EvViewRecord:       "view_record",
	EvDeleteRecord:     "delete_record",
	EvConfirmDelete:    "confirm_delete",
	EvSettings:         "settings",
}

func (k EventKind) String() string {
	if k < 0 || k >= eventKindCount {
		return "invalid"
	}
	return eventNames[k]
}

// AllEventKinds возвращает все объявленные типы событий
func AllEventKinds() []EventKind {
	kinds := make([]EventKind, 0, int(eventKindCount))
	for k := EvUnknown; k < eventKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Event - входное событие диалога
type Event struct {
	// Text - текст сообщения для EvText
	Text string
	// Arg - параметр кнопки: ID записи, категория, поле или длина
	Arg  string
	Kind EventKind
}

// IsCallback сообщает, что событие пришло от inline-кнопки
func (e Event) IsCallback() bool {
	return e.Kind != EvText
}

// Text создает событие свободного текста
func Text(text string) Event {
	return Event{Kind: EvText, Text: text}
}

// Callback-данные кнопок
const (
	cbBackToMain     = "back_to_main"
	cbAddPassword    = "add_password"
	cbSkipURL        = "skip_url"
	cbGenerate       = "generate_password"
	cbManual         = "enter_password"
	cbPickLength     = "password_length_"
	cbSave           = "save_password"
	cbRevealDraft    = "show_password"
	cbBackToChoice   = "back_to_choice"
	cbGenerator      = "password_generator"
	cbLengthPicker   = "gen_length"
	cbSetLength      = "set_length_"
	cbToggleUpper    = "toggle_uppercase"
	cbToggleDigits   = "toggle_numbers"
	cbToggleSymbols  = "toggle_symbols"
	cbRegenerate     = "generate"
	cbEdit           = "edit_"
	cbBackToEdit     = "back_to_edit"
	cbClearURL       = "delete_url"
	cbViewCategories = "view_categories"
	cbCategory       = "category_"
	cbCategoryIndex  = "cat_"
	cbService        = "service_"
	cbDelete         = "delete_"
	cbConfirmDelete  = "confirm_delete_"
	cbSettings       = "settings"

	// maxCallbackData - ограничение Telegram на callback_data в байтах
	maxCallbackData = 64
)

var exactCallbacks = map[string]EventKind{
	cbBackToMain:     EvBackToMain,
	cbAddPassword:    EvStartAdd,
	cbSkipURL:        EvSkipURL,
	cbGenerate:       EvChooseGenerate,
	cbManual:         EvChooseManual,
	cbSave:           EvSave,
	cbRevealDraft:    EvRevealDraft,
	cbBackToChoice:   EvBackToChoice,
	cbGenerator:      EvOpenGenerator,
	cbLengthPicker:   EvOpenLengthPicker,
	cbToggleUpper:    EvToggleUppercase,
	cbToggleDigits:   EvToggleDigits,
	cbToggleSymbols:  EvToggleSymbols,
	cbRegenerate:     EvGenerate,
	cbBackToEdit:     EvBackToEdit,
	cbClearURL:       EvClearURL,
	cbViewCategories: EvViewCategories,
	cbSettings:       EvSettings,
}

// Порядок важен: confirm_delete_ проверяется раньше delete_
var prefixCallbacks = []struct {
	prefix string
	kind   EventKind
}{
	{cbPickLength, EvPickLength},
	{cbSetLength, EvSetLength},
	{cbConfirmDelete, EvConfirmDelete},
	{cbDelete, EvDeleteRecord},
	{cbCategory, EvViewCategory},
	{cbService, EvViewRecord},
	{cbEdit, EvEditRecord},
}

// ParseCallback разбирает callback-данные кнопки в событие.
// Нераспознанные данные дают EvUnknown.
func ParseCallback(data string) Event {
	if kind, ok := exactCallbacks[data]; ok {
		return Event{Kind: kind}
	}

	if idx, ok := strings.CutPrefix(data, cbCategoryIndex); ok {
		if _, err := strconv.Atoi(idx); err == nil {
			return Event{Kind: EvViewCategory, Arg: categoryRefPrefix + idx}
		}
	}

	for _, p := range prefixCallbacks {
		arg, ok := strings.CutPrefix(data, p.prefix)
		if !ok || arg == "" {
			continue
		}
		// edit_<поле> выбирает поле, edit_<id> загружает запись
		if p.kind == EvEditRecord && isFieldName(arg) {
			return Event{Kind: EvEditField, Arg: arg}
		}
		return Event{Kind: p.kind, Arg: arg}
	}

	return Event{Kind: EvUnknown, Arg: data}
}
