package types

// Position is an integer pixel offset from the top-left corner of the poster canvas
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p shifted by dx, dy
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Size is a width/height pair in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Status tracks the translation state of a labeled file
type Status string

const (
	StatusPending    Status = "pending"
	StatusTranslated Status = "translated"
	StatusFailed     Status = "failed"
)

// LabeledFile pairs a training image with its caption, keyed by the shared base name
type LabeledFile struct {
	OriginalName      string `json:"original_name"`
	BaseName          string `json:"base_name"`
	ImageData         []byte `json:"-"`
	ContentType       string `json:"content_type,omitempty"`
	HasCaption        bool   `json:"has_caption"`
	TextContent       string `json:"text_content"`
	TranslatedContent string `json:"translated_content"`
	Status            Status `json:"status"`
	Error             string `json:"error,omitempty"`
}

// LabelSettings holds the vision model settings of the pair labeler
type LabelSettings struct {
	APIKey       string `json:"api_key"`
	BaseURL      string `json:"base_url"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
}

// ImagePreview carries an image name and its base64 encoded bytes
type ImagePreview struct {
	Name    string `json:"name"`
	Preview string `json:"preview"`
}

// LabelResult is the outcome of describing one _R/_T image pair
type LabelResult struct {
	BaseName    string        `json:"base_name"`
	Description string        `json:"description"`
	RImage      *ImagePreview `json:"r_image,omitempty"`
	TImage      *ImagePreview `json:"t_image,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// LabelResponse is the body returned by the pair labeler endpoint
type LabelResponse struct {
	Success bool          `json:"success"`
	Results []LabelResult `json:"results"`
}

// Upload is a file received from a client, held in memory
type Upload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}
