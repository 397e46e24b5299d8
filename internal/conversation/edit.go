package conversation

import (
	"fmt"
	"strings"

	"github.com/iudanet/vaultbot/internal/models"
	"github.com/iudanet/vaultbot/internal/session"
	"github.com/iudanet/vaultbot/internal/validation"
)

var fieldStates = map[models.Field]session.State{
	models.FieldCategory: session.EditingCategory,
	models.FieldService:  session.EditingService,
	models.FieldLogin:    session.EditingLogin,
	models.FieldPassword: session.EditingPassword,
	models.FieldURL:      session.EditingURL,
}

// editRecord загружает запись в черновик и показывает выбор поля
func (m *Machine) editRecord(t *turn) (Reply, error) {
	c, err := m.deps.Store.GetCredential(t.ctx, t.in.Event.Arg)
	if isNotFound(err) {
		t.sess.Reset()
		return reply(OutcomeNotFound, notFoundView()), nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("failed to load credential: %w", err)
	}

	secret, err := m.deps.Cipher.Decrypt(c.EncryptedSecret)
	if err != nil {
		m.logger.Warn("failed to decrypt credential for edit", "record_id", c.ID, "error", err)
		t.sess.Reset()
		return reply(OutcomeDecryptFailed, decryptFailedView(c, t.sess)), nil
	}

	t.sess.Reset()
	t.sess.Draft = models.Draft{
		Category: c.Category,
		Service:  c.Service,
		Login:    c.Login,
		Secret:   secret,
		URL:      c.URL,
	}
	t.sess.EditingID = c.ID
	t.sess.State = session.ConfirmSave
	return reply(OutcomeAdvanced, editPickerView(t.sess)), nil
}

func (m *Machine) showEditPicker(t *turn) (Reply, error) {
	t.sess.State = session.ConfirmSave
	return reply(OutcomeShown, editPickerView(t.sess)), nil
}

func (m *Machine) pickField(t *turn) (Reply, error) {
	field, ok := models.ParseField(t.in.Event.Arg)
	if !ok {
		return m.unknown(t.sess), nil
	}
	t.sess.State = fieldStates[field]
	return reply(OutcomeAdvanced, editFieldView(t.sess.State)), nil
}

var editErrors = map[session.State]string{
	session.EditingCategory: errCategoryEmpty,
	session.EditingService:  errServiceEmpty,
	session.EditingLogin:    errLoginEmpty,
}

// editFieldInput меняет ровно одно поле черновика и возвращает к подтверждению
func (m *Machine) editFieldInput(t *turn) (Reply, error) {
	text := t.in.Event.Text
	d := &t.sess.Draft

	switch t.sess.State {
	case session.EditingURL:
		d.URL = validation.OptionalURL(text)
	case session.EditingPassword:
		if strings.TrimSpace(text) == "" {
			return reply(OutcomeRejected, withError(errPasswordEmpty, editFieldView(t.sess.State))), nil
		}
		m.deleteMessage(t.ctx, t.in.Message)
		d.Secret = text
	default:
		value, err := validation.Required(text)
		if err != nil {
			return reply(OutcomeRejected, withError(editErrors[t.sess.State], editFieldView(t.sess.State))), nil
		}
		switch t.sess.State {
		case session.EditingCategory:
			d.Category = value
		case session.EditingService:
			d.Service = value
		case session.EditingLogin:
			d.Login = value
		}
	}

	t.sess.State = session.ConfirmSave
	return reply(OutcomeAdvanced, confirmView(t.sess, "")), nil
}

func (m *Machine) clearURL(t *turn) (Reply, error) {
	t.sess.Draft.URL = ""
	t.sess.State = session.ConfirmSave
	return reply(OutcomeAdvanced, confirmView(t.sess, "URL был удален.")), nil
}
