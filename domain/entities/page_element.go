package entities

// Candidate is a control found on the page while probing for selectors
type Candidate struct {
	Text      string `json:"text" mapstructure:"text"`
	AriaLabel string `json:"ariaLabel" mapstructure:"ariaLabel"`
	TagName   string `json:"tagName,omitempty" mapstructure:"tagName"`
	Visible   bool   `json:"visible" mapstructure:"visible"`
}

// Selector report keys
const (
	ControlToolsButton  = "tools_button"
	ControlImageTool    = "image_tool"
	ControlUploadButton = "upload_button"
	ControlSendButton   = "send_button"
)

// SelectorReport maps a control key to the best candidate found for it
type SelectorReport map[string]Candidate
