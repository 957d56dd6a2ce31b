package entities

// SelectorSet holds the selectors the translator uses against the AI web app.
// The app changes its markup often; the repair tool rewrites this set.
type SelectorSet struct {
	ToolsButton      []string `yaml:"tools_button" json:"tools_button"`
	ToolsKeywords    []string `yaml:"tools_keywords" json:"tools_keywords"`
	ImageToolText    string   `yaml:"image_tool_text" json:"image_tool_text"`
	MenuItems        string   `yaml:"menu_items" json:"menu_items"`
	QuickAccess      []string `yaml:"quick_access" json:"quick_access"`
	UploadMenu       []string `yaml:"upload_menu" json:"upload_menu"`
	UploadFiles      []string `yaml:"upload_files" json:"upload_files"`
	FileInput        string   `yaml:"file_input" json:"file_input"`
	Textbox          string   `yaml:"textbox" json:"textbox"`
	SendButtonLabels []string `yaml:"send_button_labels" json:"send_button_labels"`
	NewChat          []string `yaml:"new_chat" json:"new_chat"`
	PopupClose       []string `yaml:"popup_close" json:"popup_close"`
	ResultImages     string   `yaml:"result_images" json:"result_images"`
}

// DefaultSelectors returns the selectors known to work with the current markup
func DefaultSelectors() SelectorSet {
	return SelectorSet{
		ToolsButton: []string{
			"button[aria-label='Herramientas']",
			"button[aria-label='Tools']",
			"button[aria-label*='erramienta']",
			"button[aria-label*='ool']",
		},
		ToolsKeywords: []string{"herramienta", "tools"},
		ImageToolText: "crear imagen",
		MenuItems:     "button, div[role='menuitem'], li",
		QuickAccess: []string{
			"xpath=//*[contains(text(), 'Crear imagen') or contains(@aria-label, 'Crear imagen')]",
			"xpath=//*[contains(text(), 'Create image') or contains(@aria-label, 'Create image')]",
		},
		UploadMenu: []string{
			"button[aria-label*='menú de subida']",
			"button[aria-label*='upload menu']",
		},
		UploadFiles: []string{
			"button[aria-label*='Subir archivos']",
			"button[aria-label*='Upload files']",
		},
		FileInput:        "input[type='file']",
		Textbox:          "div[role='textbox']",
		SendButtonLabels: []string{"Enviar mensaje", "Send message"},
		NewChat: []string{
			"xpath=//button[contains(@aria-label, 'Nueva')]",
			"xpath=//button[contains(@aria-label, 'New')]",
			"xpath=//*[contains(text(), 'Nueva conversación')]",
			"xpath=//*[contains(text(), 'New chat')]",
		},
		PopupClose:   []string{"Cerrar", "Close", "Entendido", "Got it"},
		ResultImages: "img, canvas",
	}
}
