package conversation

import (
	"fmt"

	"github.com/iudanet/vaultbot/internal/generator"
	"github.com/iudanet/vaultbot/internal/session"
	"github.com/iudanet/vaultbot/internal/validation"
)

func (m *Machine) openGenerator(t *turn) (Reply, error) {
	t.sess.Reset()
	t.sess.State = session.GeneratorSettings
	return reply(OutcomeShown, generatorView(t.sess.Options)), nil
}

func (m *Machine) openLengthPicker(t *turn) (Reply, error) {
	return reply(OutcomeShown, lengthPickerView()), nil
}

func (m *Machine) setLength(t *turn) (Reply, error) {
	n, err := validation.PasswordLength(t.in.Event.Arg)
	if err != nil {
		return reply(OutcomeRejected, withError(errLength, generatorView(t.sess.Options))), nil
	}

	err = m.deps.Sessions.UpdateOptions(t.ctx, t.sess, func(o generator.Options) (generator.Options, error) {
		return o.WithLength(n)
	})
	if err != nil {
		return Reply{}, err
	}
	return reply(OutcomeShown, generatorView(t.sess.Options)), nil
}

func toggleOption(update func(generator.Options) generator.Options) handler {
	return func(m *Machine, t *turn) (Reply, error) {
		err := m.deps.Sessions.UpdateOptions(t.ctx, t.sess, func(o generator.Options) (generator.Options, error) {
			return update(o), nil
		})
		if err != nil {
			return Reply{}, err
		}
		return reply(OutcomeShown, generatorView(t.sess.Options)), nil
	}
}

func (m *Machine) generate(t *turn) (Reply, error) {
	password, err := m.deps.Generate(t.sess.Options)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to generate password: %w", err)
	}
	return reply(OutcomeShown, generatedView(password)), nil
}

func (m *Machine) showSettings(t *turn) (Reply, error) {
	t.sess.Reset()
	return reply(OutcomeShown, settingsView(m.deps.Revealer.Timing(), t.sess.Options)), nil
}
