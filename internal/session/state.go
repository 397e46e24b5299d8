package session

// State - шаг диалога, на котором находится пользователь
type State int

const (
	Idle State = iota
	AwaitingCategory
	AwaitingService
	AwaitingLogin
	AwaitingURL
	AwaitingPasswordChoice
	AwaitingPassword
	AwaitingPasswordLength
	ConfirmSave
	GeneratorSettings
	EditingCategory
	EditingService
	EditingLogin
	EditingPassword
	EditingURL

	stateCount
)

var stateNames = [...]string{
	Idle:                   "IDLE",
	AwaitingCategory:       "AWAITING_CATEGORY",
	AwaitingService:        "AWAITING_SERVICE",
	AwaitingLogin:          "AWAITING_LOGIN",
	AwaitingURL:            "AWAITING_URL",
	AwaitingPasswordChoice: "AWAITING_PASSWORD_CHOICE",
	AwaitingPassword:       "AWAITING_PASSWORD",
	AwaitingPasswordLength: "AWAITING_PASSWORD_LENGTH",
	ConfirmSave:            "CONFIRM_SAVE",
	GeneratorSettings:      "GENERATOR_SETTINGS",
	EditingCategory:        "EDITING_CATEGORY",
	EditingService:         "EDITING_SERVICE",
	EditingLogin:           "EDITING_LOGIN",
	EditingPassword:        "EDITING_PASSWORD",
	EditingURL:             "EDITING_URL",
}

// String возвращает имя состояния
func (s State) String() string {
	if !s.Valid() {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Valid сообщает, что значение входит в объявленный набор
func (s State) Valid() bool {
	return s >= Idle && s < stateCount
}

// IsEditing сообщает, что пользователь редактирует поле существующей записи
func (s State) IsEditing() bool {
	return s >= EditingCategory && s <= EditingURL
}

// AllStates возвращает все объявленные состояния
func AllStates() []State {
	states := make([]State, 0, int(stateCount))
	for s := Idle; s < stateCount; s++ {
		states = append(states, s)
	}
	return states
}
