package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iudanet/vaultbot/internal/disclosure"
	"github.com/iudanet/vaultbot/internal/generator"
	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/models"
	"github.com/iudanet/vaultbot/internal/session"
	"github.com/iudanet/vaultbot/internal/validation"
)

// view - текст экрана с клавиатурой
type view struct {
	text     string
	keyboard messaging.Keyboard
}

var esc = messaging.Escape

// Тексты ошибок ввода
const (
	errCategoryEmpty = "❌ Категория не может быть пустой. Пожалуйста, введите категорию:"
	errServiceEmpty  = "❌ Название сервиса не может быть пустым. Пожалуйста, введите название сервиса:"
	errLoginEmpty    = "❌ Логин не может быть пустым. Пожалуйста, введите логин:"
	errPasswordEmpty = "❌ Пароль не может быть пустым. Пожалуйста, введите пароль:"
	errLength        = "❌ Длина пароля должна быть числом от 4 до 100. Пожалуйста, введите правильное значение:"
	errUnavailable   = "⚠️ Это действие сейчас недоступно."
	errIdleText      = "Нажмите /start для начала работы с ботом."
)

func cancelRow() []messaging.Button {
	return messaging.Row(messaging.Callback("🔙 Отмена", cbBackToMain))
}

func backToMainRow() []messaging.Button {
	return messaging.Row(messaging.Callback("🔙 Назад", cbBackToMain))
}

func mainMenuView() view {
	return view{
		text: "👋 <b>Добро пожаловать в Password Manager Bot!</b>\n\n" +
			"Я помогу вам безопасно хранить ваши пароли и генерировать новые надежные пароли.\n\n" +
			"Выберите действие в меню ниже:",
		keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback("📁 Все записи", cbViewCategories)),
			messaging.Row(messaging.Callback("➕ Добавить пароль", cbAddPassword)),
			messaging.Row(messaging.Callback("🧠 Генератор паролей", cbGenerator)),
			messaging.Row(messaging.Callback("⚙️ Настройки", cbSettings)),
		},
	}
}

func categoryPromptView() view {
	return view{
		text:     "📝 <b>Добавление нового пароля</b>\n\nШаг 1/5: Введите категорию (например: Почта, Игры, Финансы)",
		keyboard: messaging.Keyboard{cancelRow()},
	}
}

func servicePromptView() view {
	return view{
		text:     "📝 <b>Шаг 2/5:</b> Введите название сервиса (например: Gmail, VK, Steam)",
		keyboard: messaging.Keyboard{cancelRow()},
	}
}

func loginPromptView() view {
	return view{
		text:     "📝 <b>Шаг 3/5:</b> Введите логин или email:",
		keyboard: messaging.Keyboard{cancelRow()},
	}
}

func urlPromptView() view {
	return view{
		text: "📝 <b>Шаг 4/5:</b> Введите URL сервиса (необязательно):",
		keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback("⏩ Пропустить", cbSkipURL)),
			cancelRow(),
		},
	}
}

func passwordChoiceView() view {
	return view{
		text: "📝 <b>Шаг 5/5:</b> Выберите способ создания пароля:",
		keyboard: messaging.Keyboard{
			messaging.Row(
				messaging.Callback("🔐 Сгенерировать пароль", cbGenerate),
				messaging.Callback("⌨️ Ввести вручную", cbManual),
			),
			backToMainRow(),
		},
	}
}

func passwordPromptView() view {
	return view{
		text:     "🔑 Введите пароль для сохранения:\n\n<i>Сообщение с паролем будет удалено из чата.</i>",
		keyboard: messaging.Keyboard{messaging.Row(messaging.Callback("🔙 Назад", cbBackToChoice))},
	}
}

// creationLengths - варианты длины при создании записи
var creationLengths = []int{10, 12, 16, 20}

func lengthKeyboard(current int) messaging.Keyboard {
	kb := make(messaging.Keyboard, 0, len(creationLengths)+1)
	for _, n := range creationLengths {
		label := strconv.Itoa(n)
		if n == current {
			label += " ⭐"
		}
		kb = append(kb, messaging.Row(messaging.Callback(label, cbPickLength+strconv.Itoa(n))))
	}
	return append(kb, messaging.Row(messaging.Callback("🔙 Назад", cbBackToChoice)))
}

func lengthPromptView(opts generator.Options) view {
	return view{
		text: fmt.Sprintf("🔢 Введите длину пароля (от %d до %d) или выберите вариант ниже. ⭐ - текущая длина %d.",
			generator.MinLength, generator.MaxLength, opts.Length),
		keyboard: lengthKeyboard(opts.Length),
	}
}

func maskSecret(secret string) string {
	return fmt.Sprintf("•••••••• (%d симв.)", len([]rune(secret)))
}

func draftDetails(d models.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Категория:</b> %s\n", esc(d.Category))
	fmt.Fprintf(&b, "<b>Сервис:</b> %s\n", esc(d.Service))
	fmt.Fprintf(&b, "<b>Логин:</b> %s", esc(d.Login))
	if d.URL != "" {
		fmt.Fprintf(&b, "\n<b>URL:</b> %s", esc(d.URL))
	}
	return b.String()
}

func confirmView(sess *session.Session, note string) view {
	title, question := "📝 <b>Проверьте введенные данные:</b>", "Всё верно?"
	if sess.IsEditing() {
		title, question = "📝 <b>Проверьте обновленные данные:</b>", "Сохранить изменения?"
	}

	text := fmt.Sprintf("%s\n\n%s\n<b>Пароль:</b> %s\n\n", title, draftDetails(sess.Draft), maskSecret(sess.Draft.Secret))
	if note != "" {
		text += note + " "
	}
	text += question

	return view{
		text: text,
		keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback("✅ Сохранить", cbSave)),
			messaging.Row(
				messaging.Callback("👁 Показать пароль", cbRevealDraft),
				messaging.Callback("✏️ Изменить", cbBackToEdit),
			),
			cancelRow(),
		},
	}
}

func editPickerView(sess *session.Session) view {
	back := messaging.Callback("🔙 Назад", cbBackToMain)
	if sess.IsEditing() {
		back = messaging.Callback("🔙 Назад", cbService+sess.EditingID)
	}
	return view{
		text: fmt.Sprintf("✏️ <b>Редактирование записи</b>\n\n%s\n\nЧто вы хотите изменить?", draftDetails(sess.Draft)),
		keyboard: messaging.Keyboard{
			messaging.Row(
				messaging.Callback("📝 Категорию", cbEdit+string(models.FieldCategory)),
				messaging.Callback("📝 Сервис", cbEdit+string(models.FieldService)),
			),
			messaging.Row(
				messaging.Callback("📝 Логин", cbEdit+string(models.FieldLogin)),
				messaging.Callback("🔑 Пароль", cbEdit+string(models.FieldPassword)),
			),
			messaging.Row(messaging.Callback("🔗 URL", cbEdit+string(models.FieldURL))),
			messaging.Row(messaging.Callback("✅ Сохранить", cbSave)),
			messaging.Row(back),
		},
	}
}

var fieldPrompts = map[session.State]string{
	session.EditingCategory: "✏️ Введите новую категорию:",
	session.EditingService:  "✏️ Введите новое название сервиса:",
	session.EditingLogin:    "✏️ Введите новый логин:",
	session.EditingPassword: "✏️ Введите новый пароль:\n\n<i>Сообщение с паролем будет удалено из чата.</i>",
	session.EditingURL:      "✏️ Введите новый URL:",
}

func editFieldView(state session.State) view {
	kb := messaging.Keyboard{}
	if state == session.EditingURL {
		kb = append(kb, messaging.Row(messaging.Callback("⏩ Удалить URL", cbClearURL)))
	}
	kb = append(kb, messaging.Row(messaging.Callback("🔙 Отмена", cbBackToEdit)))
	return view{text: fieldPrompts[state], keyboard: kb}
}

func savedView(updated bool) view {
	text := "✅ Пароль успешно сохранен!"
	if updated {
		text = "✅ Пароль успешно обновлен!"
	}
	return view{
		text: text,
		keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback("📁 К списку паролей", cbViewCategories)),
			messaging.Row(messaging.Callback("🏠 На главную", cbBackToMain)),
		},
	}
}

func notFoundView() view {
	return view{
		text:     "❌ Запись не найдена. Возможно, она была удалена.",
		keyboard: messaging.Keyboard{messaging.Row(messaging.Callback("🔙 Назад", cbViewCategories))},
	}
}

func decryptFailedView(c *models.Credential, sess *session.Session) view {
	return view{
		text: fmt.Sprintf("❌ Не удалось расшифровать пароль для <b>%s</b>. "+
			"Возможно, бот запущен с другим ключом шифрования.", esc(c.Service)),
		keyboard: messaging.Keyboard{messaging.Row(categoryButton(sess, "🔙 Назад", c.Category))},
	}
}

func emptyVaultView() view {
	return view{
		text: "📭 У вас пока нет сохраненных паролей. Добавьте первый пароль!",
		keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback("➕ Добавить пароль", cbAddPassword)),
			backToMainRow(),
		},
	}
}

func categoriesView(sess *session.Session, categories []string) view {
	kb := make(messaging.Keyboard, 0, len(categories)/2+2)
	for i := 0; i < len(categories); i += 2 {
		row := messaging.Row(categoryButton(sess, categoryEmoji(categories[i])+" "+categories[i], categories[i]))
		if i+1 < len(categories) {
			row = append(row, categoryButton(sess, categoryEmoji(categories[i+1])+" "+categories[i+1], categories[i+1]))
		}
		kb = append(kb, row)
	}
	kb = append(kb, backToMainRow())
	return view{text: "📂 <b>Выберите категорию:</b>", keyboard: kb}
}

func categoryView(category string, credentials []*models.Credential) view {
	if len(credentials) == 0 {
		return view{
			text: fmt.Sprintf("📭 В категории <b>%s</b> пока нет сохраненных паролей.", esc(category)),
			keyboard: messaging.Keyboard{
				messaging.Row(messaging.Callback("➕ Добавить пароль", cbAddPassword)),
				messaging.Row(messaging.Callback("🔙 Назад", cbViewCategories)),
			},
		}
	}

	kb := make(messaging.Keyboard, 0, len(credentials)+1)
	for _, c := range credentials {
		label := serviceEmoji(c.Service) + " " + c.Service
		if countService(credentials, c.Service) > 1 {
			label += " (" + c.Login + ")"
		}
		kb = append(kb, messaging.Row(messaging.Callback(label, cbService+c.ID)))
	}
	kb = append(kb, messaging.Row(messaging.Callback("🔙 Назад", cbViewCategories)))

	return view{
		text:     fmt.Sprintf("📂 <b>Категория: %s</b>\n\nВыберите сервис:", esc(category)),
		keyboard: kb,
	}
}

func countService(credentials []*models.Credential, service string) int {
	n := 0
	for _, c := range credentials {
		if c.Service == service {
			n++
		}
	}
	return n
}

func recordHeaderText(c *models.Credential) string {
	text := fmt.Sprintf("🔐 <b>Данные для входа:</b>\n\n<b>Категория:</b> %s\n<b>Сервис:</b> %s\n<b>Логин:</b> <code>%s</code>",
		esc(c.Category), esc(c.Service), esc(c.Login))
	if c.URL != "" {
		text += fmt.Sprintf("\n<b>URL:</b> %s", esc(c.URL))
	}
	return text + "\n\nОтправляю пароль отдельным сообщением..."
}

func recordSecretView(sess *session.Session, c *models.Credential, secret string) view {
	kb := messaging.Keyboard{}
	if validation.IsLinkable(c.URL) {
		kb = append(kb, messaging.Row(messaging.Link("🔗 Открыть сайт", c.URL)))
	}
	kb = append(kb,
		messaging.Row(
			messaging.Callback("🔁 Редактировать", cbEdit+c.ID),
			messaging.Callback("❌ Удалить", cbDelete+c.ID),
		),
		messaging.Row(categoryButton(sess, "🔙 Назад", c.Category)),
	)
	return view{
		text:     fmt.Sprintf("🔑 <b>Пароль для %s:</b>\n\n<code>%s</code>", esc(c.Service), esc(secret)),
		keyboard: kb,
	}
}

func draftSecretView(d models.Draft) view {
	return view{text: fmt.Sprintf("🔑 <b>Пароль для %s:</b>\n\n<code>%s</code>", esc(d.Service), esc(d.Secret))}
}

func deleteConfirmView(sess *session.Session, c *models.Credential) view {
	return view{
		text: fmt.Sprintf("❓ Вы уверены, что хотите удалить запись для <b>%s</b>?", esc(c.Service)),
		keyboard: messaging.Keyboard{
			messaging.Row(
				messaging.Callback("✅ Да, удалить", cbConfirmDelete+c.ID),
				categoryButton(sess, "❌ Нет, отмена", c.Category),
			),
		},
	}
}

func deletedView() view {
	return view{
		text: "✅ Запись успешно удалена!",
		keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback("📁 К списку паролей", cbViewCategories)),
			messaging.Row(messaging.Callback("🏠 На главную", cbBackToMain)),
		},
	}
}

func onOff(v bool) string {
	if v {
		return "✅"
	}
	return "❌"
}

func generatorView(opts generator.Options) view {
	return view{
		text: "🧠 <b>Генератор паролей</b>\n\nНастройте параметры генерации пароля:",
		keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback(fmt.Sprintf("🔢 Длина: %d", opts.Length), cbLengthPicker)),
			messaging.Row(
				messaging.Callback("🔠 Заглавные: "+onOff(opts.Uppercase), cbToggleUpper),
				messaging.Callback("🔢 Цифры: "+onOff(opts.Digits), cbToggleDigits),
			),
			messaging.Row(messaging.Callback("#️⃣ Спецсимволы: "+onOff(opts.Symbols), cbToggleSymbols)),
			messaging.Row(messaging.Callback("🔄 Сгенерировать", cbRegenerate)),
			backToMainRow(),
		},
	}
}

// pickerLengths - варианты длины в настройках генератора
var pickerLengths = [][]int{{8, 10, 12}, {14, 16, 20}}

func lengthPickerView() view {
	kb := make(messaging.Keyboard, 0, len(pickerLengths)+1)
	for _, row := range pickerLengths {
		buttons := make([]messaging.Button, 0, len(row))
		for _, n := range row {
			buttons = append(buttons, messaging.Callback(strconv.Itoa(n), cbSetLength+strconv.Itoa(n)))
		}
		kb = append(kb, buttons)
	}
	kb = append(kb, messaging.Row(messaging.Callback("🔙 Назад", cbGenerator)))
	return view{text: "🔢 <b>Выберите длину пароля:</b>", keyboard: kb}
}

func generatedView(password string) view {
	return view{
		text: fmt.Sprintf("🔐 <b>Сгенерированный пароль:</b>\n\n<code>%s</code>\n\n"+
			"Нажмите на пароль, чтобы выделить его и скопировать.", esc(password)),
		keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback("🔄 Сгенерировать новый", cbRegenerate)),
			messaging.Row(messaging.Callback("⚙️ Настройки", cbGenerator)),
			backToMainRow(),
		},
	}
}

func settingsView(timing disclosure.Timing, opts generator.Options) view {
	text := fmt.Sprintf("⚙️ <b>Настройки</b>\n\n"+
		"⏱ Пароль показывается %d секунд, отсчет обновляется каждые %d секунд.\n\n"+
		"🧠 Генератор: длина %d, заглавные %s, цифры %s, спецсимволы %s.",
		int(timing.TTL.Seconds()), int(timing.Interval.Seconds()),
		opts.Length, onOff(opts.Uppercase), onOff(opts.Digits), onOff(opts.Symbols))
	return view{
		text: text,
		keyboard: messaging.Keyboard{
			messaging.Row(messaging.Callback("🧠 Изменить генератор", cbGenerator)),
			backToMainRow(),
		},
	}
}

// withError добавляет к экрану текст ошибки, сохраняя его клавиатуру
func withError(errText string, v view) view {
	return view{text: errText, keyboard: v.keyboard}
}

// promptView возвращает экран текущего шага
func promptView(sess *session.Session) view {
	switch sess.State {
	case session.AwaitingCategory:
		return categoryPromptView()
	case session.AwaitingService:
		return servicePromptView()
	case session.AwaitingLogin:
		return loginPromptView()
	case session.AwaitingURL:
		return urlPromptView()
	case session.AwaitingPasswordChoice:
		return passwordChoiceView()
	case session.AwaitingPassword:
		return passwordPromptView()
	case session.AwaitingPasswordLength:
		return lengthPromptView(sess.Options)
	case session.ConfirmSave:
		return confirmView(sess, "")
	case session.GeneratorSettings:
		return generatorView(sess.Options)
	case session.EditingCategory, session.EditingService, session.EditingLogin,
		session.EditingPassword, session.EditingURL:
		return editFieldView(sess.State)
	default:
		return mainMenuView()
	}
}
