package conversation

import (
	"fmt"
	"strings"

	"github.com/iudanet/vaultbot/internal/disclosure"
	"github.com/iudanet/vaultbot/internal/generator"
	"github.com/iudanet/vaultbot/internal/models"
	"github.com/iudanet/vaultbot/internal/session"
	"github.com/iudanet/vaultbot/internal/validation"
)

func (m *Machine) backToMain(t *turn) (Reply, error) {
	t.sess.Reset()
	return reply(OutcomeReset, mainMenuView()), nil
}

func (m *Machine) startAdd(t *turn) (Reply, error) {
	t.sess.Reset()
	t.sess.State = session.AwaitingCategory
	return reply(OutcomeAdvanced, categoryPromptView()), nil
}

// requiredInput принимает непустое поле черновика и переходит в next
func (m *Machine) requiredInput(t *turn, errText string, set func(*models.Draft, string), next session.State) (Reply, error) {
	value, err := validation.Required(t.in.Event.Text)
	if err != nil {
		return reply(OutcomeRejected, withError(errText, promptView(t.sess))), nil
	}
	set(&t.sess.Draft, value)
	t.sess.State = next
	return reply(OutcomeAdvanced, promptView(t.sess)), nil
}

func (m *Machine) categoryInput(t *turn) (Reply, error) {
	return m.requiredInput(t, errCategoryEmpty, func(d *models.Draft, v string) { d.Category = v }, session.AwaitingService)
}

func (m *Machine) serviceInput(t *turn) (Reply, error) {
	return m.requiredInput(t, errServiceEmpty, func(d *models.Draft, v string) { d.Service = v }, session.AwaitingLogin)
}

func (m *Machine) loginInput(t *turn) (Reply, error) {
	return m.requiredInput(t, errLoginEmpty, func(d *models.Draft, v string) { d.Login = v }, session.AwaitingURL)
}

func (m *Machine) urlInput(t *turn) (Reply, error) {
	t.sess.Draft.URL = validation.OptionalURL(t.in.Event.Text)
	t.sess.State = session.AwaitingPasswordChoice
	return reply(OutcomeAdvanced, passwordChoiceView()), nil
}

func (m *Machine) skipURL(t *turn) (Reply, error) {
	t.sess.Draft.URL = ""
	t.sess.State = session.AwaitingPasswordChoice
	return reply(OutcomeAdvanced, passwordChoiceView()), nil
}

func (m *Machine) chooseGenerate(t *turn) (Reply, error) {
	t.sess.State = session.AwaitingPasswordLength
	return reply(OutcomeAdvanced, lengthPromptView(t.sess.Options)), nil
}

func (m *Machine) chooseManual(t *turn) (Reply, error) {
	t.sess.State = session.AwaitingPassword
	return reply(OutcomeAdvanced, passwordPromptView()), nil
}

// backToChoice возвращает к выбору способа создания пароля, черновик
// сохраняется
func (m *Machine) backToChoice(t *turn) (Reply, error) {
	t.sess.State = session.AwaitingPasswordChoice
	return reply(OutcomeAdvanced, passwordChoiceView()), nil
}

// passwordInput принимает пароль как есть: пробелы по краям допустимы,
// отклоняется только пустой после trim ввод
func (m *Machine) passwordInput(t *turn) (Reply, error) {
	text := t.in.Event.Text
	if strings.TrimSpace(text) == "" {
		return reply(OutcomeRejected, withError(errPasswordEmpty, passwordPromptView())), nil
	}

	m.deleteMessage(t.ctx, t.in.Message)
	t.sess.Draft.Secret = text
	t.sess.State = session.ConfirmSave
	return reply(OutcomeAdvanced, confirmView(t.sess, "")), nil
}

// lengthInput генерирует пароль длины из текста или кнопки.
// Оба пути проверяются одной границей [4, 100].
func (m *Machine) lengthInput(t *turn) (Reply, error) {
	raw := t.in.Event.Text
	if t.in.Event.Kind == EvPickLength {
		raw = t.in.Event.Arg
	}

	n, err := validation.PasswordLength(raw)
	if err != nil {
		return reply(OutcomeRejected, withError(errLength, lengthPromptView(t.sess.Options))), nil
	}

	opts, err := t.sess.Options.WithLength(n)
	if err != nil {
		return reply(OutcomeRejected, withError(errLength, lengthPromptView(t.sess.Options))), nil
	}
	secret, err := m.deps.Generate(opts)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to generate password: %w", err)
	}

	err = m.deps.Sessions.UpdateOptions(t.ctx, t.sess, func(o generator.Options) (generator.Options, error) {
		return o.WithLength(n)
	})
	if err != nil {
		return Reply{}, err
	}

	t.sess.Draft.Secret = secret
	t.sess.State = session.ConfirmSave
	return reply(OutcomeAdvanced, confirmView(t.sess, "🔐 Пароль сгенерирован.")), nil
}

// save шифрует секрет черновика и создает или обновляет запись
func (m *Machine) save(t *turn) (Reply, error) {
	d := t.sess.Draft
	editing := t.sess.IsEditing()

	encrypted, err := m.deps.Cipher.Encrypt(d.Secret)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to encrypt secret: %w", err)
	}

	now := m.deps.Clock.Now().UTC()
	c := &models.Credential{
		ID:              t.sess.EditingID,
		Category:        d.Category,
		Service:         d.Service,
		Login:           d.Login,
		EncryptedSecret: encrypted,
		URL:             d.URL,
		UpdatedAt:       now,
	}

	if editing {
		err = m.deps.Store.UpdateCredential(t.ctx, c)
		if isNotFound(err) {
			t.sess.Reset()
			return reply(OutcomeNotFound, notFoundView()), nil
		}
		if err != nil {
			return Reply{}, fmt.Errorf("failed to update credential: %w", err)
		}
	} else {
		c.CreatedAt = now
		if err := m.deps.Store.CreateCredential(t.ctx, c); err != nil {
			return Reply{}, fmt.Errorf("failed to create credential: %w", err)
		}
	}

	m.logger.Info("credential saved", "user_id", t.in.UserID, "record_id", c.ID, "updated", editing)
	t.sess.Reset()
	return reply(OutcomeSaved, savedView(editing)), nil
}

// revealDraft показывает пароль черновика через самоудаляющееся сообщение
func (m *Machine) revealDraft(t *turn) (Reply, error) {
	if t.sess.Draft.Secret == "" {
		return reply(OutcomeRejected, confirmView(t.sess, "")), nil
	}

	v := draftSecretView(t.sess.Draft)
	_, err := m.deps.Revealer.Reveal(t.ctx, disclosure.Request{
		ChatID:   t.in.ChatID,
		RecordID: t.sess.EditingID,
		Content:  v.text,
		Options:  Reply{Keyboard: v.keyboard}.Options(),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to reveal draft secret: %w", err)
	}
	return Reply{Outcome: OutcomeDisclosed, Silent: true}, nil
}
