package labels

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrMissingContent = errors.New("请输入要添加的内容")
	ErrMissingReplace = errors.New("请输入查找和替换的内容")
	ErrUnknownAction  = errors.New("unknown batch action")
	ErrBadPattern     = errors.New("invalid find pattern")
	ErrBadPosition    = errors.New("invalid position")
)

// Action is a batch caption operation
type Action string

const (
	ActionAdd          Action = "add"
	ActionReplace      Action = "replace"
	ActionTranslateAll Action = "translate-all"
)

// Where text is added
const (
	AtStart = "start"
	AtEnd   = "end"
)

// BatchOp describes one batch edit over every caption
type BatchOp struct {
	Action   Action `json:"action"`
	Content  string `json:"content,omitempty"`
	Position string `json:"position,omitempty"`
	// Find is a regular expression; every match is replaced. Replace may use $1 and ${name}.
	Find    string `json:"find,omitempty"`
	Replace string `json:"replace,omitempty"`
}

// compiled is a validated BatchOp
type compiled struct {
	op BatchOp
	re *regexp.Regexp
}

func (op BatchOp) compile() (compiled, error) {
	switch op.Action {
	case ActionAdd:
		if op.Content == "" {
			return compiled{}, ErrMissingContent
		}
		if op.Position != AtStart && op.Position != AtEnd && op.Position != "" {
			return compiled{}, fmt.Errorf("%w: %q", ErrBadPosition, op.Position)
		}
		return compiled{op: op}, nil
	case ActionReplace:
		if op.Find == "" || op.Replace == "" {
			return compiled{}, ErrMissingReplace
		}
		re, err := regexp.Compile(op.Find)
		if err != nil {
			return compiled{}, fmt.Errorf("%w: %v", ErrBadPattern, err)
		}
		return compiled{op: op, re: re}, nil
	case ActionTranslateAll:
		return compiled{op: op}, nil
	}
	return compiled{}, fmt.Errorf("%w: %q", ErrUnknownAction, op.Action)
}

// Validate checks the required fields of the action
func (op BatchOp) Validate() error {
	_, err := op.compile()
	return err
}

// apply returns the edited caption. Position defaults to the end.
func (c compiled) apply(text string) string {
	switch c.op.Action {
	case ActionAdd:
		if c.op.Position == AtStart {
			return c.op.Content + text
		}
		return text + c.op.Content
	case ActionReplace:
		return c.re.ReplaceAllString(text, c.op.Replace)
	}
	return text
}
