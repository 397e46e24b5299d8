package conversation

import (
	"github.com/iudanet/vaultbot/internal/generator"
	"github.com/iudanet/vaultbot/internal/session"
)

type handler func(m *Machine, t *turn) (Reply, error)

// transitionTable - переходы по (состояние, событие). Глобальные строки
// применяются в любом состоянии, если у состояния нет своего перехода.
type transitionTable struct {
	states map[session.State]map[EventKind]handler
	global map[EventKind]handler
}

func (t transitionTable) lookup(state session.State, kind EventKind) handler {
	if h, ok := t.states[state][kind]; ok {
		return h
	}
	return t.global[kind]
}

func newTransitionTable() transitionTable {
	editing := map[EventKind]handler{
		EvText:       (*Machine).editFieldInput,
		EvBackToEdit: (*Machine).showEditPicker,
	}
	editingURL := map[EventKind]handler{
		EvText:       (*Machine).editFieldInput,
		EvBackToEdit: (*Machine).showEditPicker,
		EvClearURL:   (*Machine).clearURL,
	}

	return transitionTable{
		global: map[EventKind]handler{
			EvBackToMain:     (*Machine).backToMain,
			EvStartAdd:       (*Machine).startAdd,
			EvOpenGenerator:  (*Machine).openGenerator,
			EvSettings:       (*Machine).showSettings,
			EvViewCategories: (*Machine).viewCategories,
			EvViewCategory:   (*Machine).viewCategory,
			EvViewRecord:     (*Machine).viewRecord,
			EvEditRecord:     (*Machine).editRecord,
			EvDeleteRecord:   (*Machine).askDelete,
			EvConfirmDelete:  (*Machine).confirmDelete,
		},
		states: map[session.State]map[EventKind]handler{
			session.AwaitingCategory: {
				EvText: (*Machine).categoryInput,
			},
			session.AwaitingService: {
				EvText: (*Machine).serviceInput,
			},
			session.AwaitingLogin: {
				EvText: (*Machine).loginInput,
			},
			session.AwaitingURL: {
				EvText:    (*Machine).urlInput,
				EvSkipURL: (*Machine).skipURL,
			},
			session.AwaitingPasswordChoice: {
				EvChooseGenerate: (*Machine).chooseGenerate,
				EvChooseManual:   (*Machine).chooseManual,
			},
			session.AwaitingPassword: {
				EvText:         (*Machine).passwordInput,
				EvBackToChoice: (*Machine).backToChoice,
			},
			session.AwaitingPasswordLength: {
				EvText:         (*Machine).lengthInput,
				EvPickLength:   (*Machine).lengthInput,
				EvBackToChoice: (*Machine).backToChoice,
			},
			session.ConfirmSave: {
				EvSave:        (*Machine).save,
				EvRevealDraft: (*Machine).revealDraft,
				EvBackToEdit:  (*Machine).showEditPicker,
				EvEditField:   (*Machine).pickField,
			},
			session.GeneratorSettings: {
				EvOpenLengthPicker: (*Machine).openLengthPicker,
				EvSetLength:        (*Machine).setLength,
				EvToggleUppercase:  toggleOption(generator.Options.ToggleUppercase),
				EvToggleDigits:     toggleOption(generator.Options.ToggleDigits),
				EvToggleSymbols:    toggleOption(generator.Options.ToggleSymbols),
				EvGenerate:         (*Machine).generate,
			},
			session.EditingCategory: editing,
			session.EditingService:  editing,
			session.EditingLogin:    editing,
			session.EditingPassword: editing,
			session.EditingURL:      editingURL,
		},
	}
}
