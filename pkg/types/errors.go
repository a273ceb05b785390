package types

// ActionError is a failure surfaced to the user as "<action>时出错: <message>"
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return e.Action + "时出错: " + e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// WrapAction returns nil for a nil err
func WrapAction(action string, err error) error {
	if err == nil {
		return nil
	}
	return &ActionError{Action: action, Err: err}
}
