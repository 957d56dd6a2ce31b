package repair

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"browser_scripts/application/pagefake"
	"browser_scripts/application/pipeline"
	"browser_scripts/domain/entities"
	"browser_scripts/infrastructure/config"
	"browser_scripts/infrastructure/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appURL = "https://gemini.google.com/app"

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func candidate(text, ariaLabel string) map[string]interface{} {
	return map[string]interface{}{
		"text":      text,
		"ariaLabel": ariaLabel,
		"tagName":   "button",
		"visible":   true,
	}
}

func newTestRepairer(page *pagefake.Browser) *Repairer {
	logger := quietLogger()
	r := NewRepairer(page, pipeline.New(nil, logger), storage.NewReportStore(), appURL, logger)
	r.PageLoad = 0
	r.Menu = 0
	return r
}

func TestInspect(t *testing.T) {
	page := pagefake.New("about:blank")
	tools := pagefake.NewElement("button", "aria-label", "Herramientas")
	page.Set("button[aria-label='Herramientas']", tools)

	page.On(&pagefake.Rule{
		Contains: toolsProbeScript,
		Result:   []interface{}{candidate("Herramientas", "Herramientas"), candidate("", "Tools 2")},
	})
	page.On(&pagefake.Rule{
		Contains: imageToolProbeScript,
		Result:   []interface{}{candidate("Crear imagen", "")},
	})
	page.On(&pagefake.Rule{
		Contains: labelProbeScript,
		Answer: func(arg interface{}) interface{} {
			if keywords := arg.([]string); keywords[0] == "enviar" {
				return []interface{}{candidate("", "Enviar mensaje")}
			}
			return []interface{}{candidate("", "Abrir menú de subida de archivos")}
		},
	})

	var percents []int
	reportFile := filepath.Join(t.TempDir(), "selectors_report.json")
	report, err := newTestRepairer(page).Inspect(context.Background(), reportFile, func(percent int, status string) {
		percents = append(percents, percent)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{appURL}, page.Navigations())
	assert.Equal(t, 1, tools.Clicks())
	assert.Equal(t, []int{10, 30, 40, 55, 70, 85, 95, 100}, percents)
	assert.Equal(t, "Herramientas", report[entities.ControlToolsButton].AriaLabel)
	assert.Equal(t, "Crear imagen", report[entities.ControlImageTool].Text)
	assert.Equal(t, "Abrir menú de subida de archivos", report[entities.ControlUploadButton].AriaLabel)
	assert.Equal(t, "Enviar mensaje", report[entities.ControlSendButton].AriaLabel)
	assert.True(t, report[entities.ControlSendButton].Visible)

	loaded, err := LoadReport(storage.NewReportStore(), reportFile)
	require.NoError(t, err)
	assert.Equal(t, report, loaded)
}

func TestInspect_NothingFound(t *testing.T) {
	page := pagefake.New("about:blank")
	reportFile := filepath.Join(t.TempDir(), "selectors_report.json")

	report, err := newTestRepairer(page).Inspect(context.Background(), reportFile, nil)
	require.NoError(t, err)
	assert.Empty(t, report)
	assert.FileExists(t, reportFile)
}

func TestLoadReport_Missing(t *testing.T) {
	_, err := LoadReport(storage.NewReportStore(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, entities.ErrEmptyReport)
}

func writeDefaults(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, config.SaveSelectors(path, entities.DefaultSelectors()))
	return path
}

func TestApply(t *testing.T) {
	path := writeDefaults(t)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	report := entities.SelectorReport{
		entities.ControlToolsButton:  {AriaLabel: "Herramientas nuevas"},
		entities.ControlSendButton:   {AriaLabel: "Submit"},
		entities.ControlUploadButton: {AriaLabel: "Abrir menú de subida de archivos"},
		entities.ControlImageTool:    {Text: "Crear imagen"},
	}

	changes, err := Apply(report, path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, changes)

	backup, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	set, err := config.LoadSelectors(path)
	require.NoError(t, err)
	defaults := entities.DefaultSelectors()
	assert.Equal(t, "button[aria-label='Herramientas nuevas']", set.ToolsButton[0])
	assert.Len(t, set.ToolsButton, len(defaults.ToolsButton)+1)
	assert.Equal(t, []string{"Submit", "Send message"}, set.SendButtonLabels)
	assert.Equal(t, "button[aria-label*='Abrir menú de subida de archivos']", set.UploadMenu[0])
	assert.Equal(t, defaults.Textbox, set.Textbox)
}

func TestApply_EscapesQuotes(t *testing.T) {
	path := writeDefaults(t)
	report := entities.SelectorReport{
		entities.ControlToolsButton:  {AriaLabel: "Tools 'beta'"},
		entities.ControlUploadButton: {AriaLabel: `Upload "files"`},
	}

	changes, err := Apply(report, path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, changes)

	set, err := config.LoadSelectors(path)
	require.NoError(t, err)
	assert.Equal(t, `button[aria-label='Tools \'beta\'']`, set.ToolsButton[0])
	assert.Equal(t, `button[aria-label*='Upload \"files\"']`, set.UploadMenu[0])
}

func TestApply_NoChanges(t *testing.T) {
	path := writeDefaults(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	report := entities.SelectorReport{
		entities.ControlToolsButton: {AriaLabel: "Herramientas"},
		entities.ControlSendButton:  {AriaLabel: "Send message"},
	}

	changes, err := Apply(report, path, quietLogger())
	require.NoError(t, err)
	assert.Zero(t, changes)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApply_Errors(t *testing.T) {
	_, err := Apply(entities.SelectorReport{}, writeDefaults(t), quietLogger())
	assert.ErrorIs(t, err, entities.ErrEmptyReport)

	// a directory cannot be read as the selectors file
	report := entities.SelectorReport{entities.ControlSendButton: {AriaLabel: "Submit"}}
	_, err = Apply(report, t.TempDir(), quietLogger())
	assert.Error(t, err)
}

func TestApply_MissingFileStartsFromDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	report := entities.SelectorReport{entities.ControlSendButton: {AriaLabel: "Submit"}}

	changes, err := Apply(report, path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, changes)
	assert.NoFileExists(t, path+".backup")

	set, err := config.LoadSelectors(path)
	require.NoError(t, err)
	defaults := entities.DefaultSelectors()
	assert.Equal(t, "Submit", set.SendButtonLabels[0])
	assert.Equal(t, defaults.ToolsButton, set.ToolsButton)
	assert.Equal(t, defaults.Textbox, set.Textbox)
}

func TestPromote(t *testing.T) {
	list, changed := promote([]string{"a", "b", "c"}, "c")
	assert.True(t, changed)
	assert.Equal(t, []string{"c", "a", "b"}, list)

	list, changed = promote([]string{"a", "b"}, "a")
	assert.False(t, changed)
	assert.Equal(t, []string{"a", "b"}, list)

	list, changed = promote(nil, "a")
	assert.True(t, changed)
	assert.Equal(t, []string{"a"}, list)
}
