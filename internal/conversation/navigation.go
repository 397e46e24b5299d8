package conversation

import (
	"fmt"

	"github.com/iudanet/vaultbot/internal/disclosure"
)

// Навигация по записям сбрасывает незавершенный черновик

func (m *Machine) viewCategories(t *turn) (Reply, error) {
	categories, err := m.deps.Store.ListCategories(t.ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to list categories: %w", err)
	}

	t.sess.Reset()
	if len(categories) == 0 {
		return reply(OutcomeShown, emptyVaultView()), nil
	}
	return reply(OutcomeShown, categoriesView(t.sess, categories)), nil
}

func (m *Machine) viewCategory(t *turn) (Reply, error) {
	category, ok := resolveCategory(t.sess, t.in.Event.Arg)
	if !ok {
		return m.viewCategories(t)
	}

	credentials, err := m.deps.Store.ListByCategory(t.ctx, category)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to list credentials: %w", err)
	}

	t.sess.Reset()
	return reply(OutcomeShown, categoryView(category, credentials)), nil
}

// viewRecord отправляет данные записи без пароля, а сам пароль - только
// через самоудаляющееся сообщение
func (m *Machine) viewRecord(t *turn) (Reply, error) {
	c, err := m.deps.Store.GetCredential(t.ctx, t.in.Event.Arg)
	if isNotFound(err) {
		t.sess.Reset()
		return reply(OutcomeNotFound, notFoundView()), nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("failed to load credential: %w", err)
	}

	t.sess.Reset()

	secret, err := m.deps.Cipher.Decrypt(c.EncryptedSecret)
	if err != nil {
		m.logger.Warn("failed to decrypt credential", "record_id", c.ID, "error", err)
		return reply(OutcomeDecryptFailed, decryptFailedView(c, t.sess)), nil
	}

	// Меню заменяется двумя новыми сообщениями
	m.deleteMessage(t.ctx, t.in.Message)

	if _, err := m.deps.Messenger.Send(t.ctx, t.in.ChatID, recordHeaderText(c), Reply{}.Options()); err != nil {
		return Reply{}, fmt.Errorf("failed to send record header: %w", err)
	}

	v := recordSecretView(t.sess, c, secret)
	_, err = m.deps.Revealer.Reveal(t.ctx, disclosure.Request{
		ChatID:   t.in.ChatID,
		RecordID: c.ID,
		Content:  v.text,
		Options:  Reply{Keyboard: v.keyboard}.Options(),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to reveal secret: %w", err)
	}

	m.logger.Info("credential viewed", "user_id", t.in.UserID, "record_id", c.ID)
	return Reply{Outcome: OutcomeDisclosed, Silent: true}, nil
}

func (m *Machine) askDelete(t *turn) (Reply, error) {
	c, err := m.deps.Store.GetCredential(t.ctx, t.in.Event.Arg)
	if isNotFound(err) {
		t.sess.Reset()
		return reply(OutcomeNotFound, notFoundView()), nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("failed to load credential: %w", err)
	}

	t.sess.Reset()
	return reply(OutcomeShown, deleteConfirmView(t.sess, c)), nil
}

// confirmDelete удаляет запись и все еще видимые сообщения с ее паролем
func (m *Machine) confirmDelete(t *turn) (Reply, error) {
	id := t.in.Event.Arg

	err := m.deps.Store.DeleteCredential(t.ctx, id)
	if isNotFound(err) {
		t.sess.Reset()
		return reply(OutcomeNotFound, notFoundView()), nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("failed to delete credential: %w", err)
	}

	expired := m.deps.Revealer.ExpireRecord(id)
	m.logger.Info("credential deleted", "user_id", t.in.UserID, "record_id", id, "expired_disclosures", expired)

	t.sess.Reset()
	return reply(OutcomeDeleted, deletedView()), nil
}
