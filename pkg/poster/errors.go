package poster

import "errors"

var (
	ErrNotFound        = errors.New("element not found")
	ErrDuplicateID     = errors.New("duplicate element id")
	ErrUnknownType     = errors.New("unknown element type")
	ErrInvalidElement  = errors.New("invalid element")
	ErrInvalidProperty = errors.New("invalid element property")
	ErrOutOfRange      = errors.New("value out of range")
	ErrInvalidColor    = errors.New("invalid colour")
	ErrEmptyContent    = errors.New("请输入元素内容")
	ErrPreviewMode     = errors.New("editor is in preview mode")

	ErrGestureActive = errors.New("another gesture is active")
	ErrNoGesture     = errors.New("no gesture in progress")
	ErrNotResizable  = errors.New("element cannot be resized")
	ErrNoSelection   = errors.New("no element selected")
	ErrNotFocused    = errors.New("element does not have keyboard focus")

	ErrGridFull       = errors.New("grid already holds the maximum number of images")
	ErrIndexRange     = errors.New("image index out of range")
	ErrPreviewGone    = errors.New("preview has been released")
	ErrGridClosed     = errors.New("grid is closed")
	ErrNotImageUpload = errors.New("upload is not an image")
)
