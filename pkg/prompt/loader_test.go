package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test_prompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writePrompt(t, `
config:
  temperature: 0.1
  format: json_object
messages:
  - role: system
    content: "Ты извлекаешь предпочтения покупателя."
  - role: user
    content: "Запрос: {{.Query}}"
`)

	pf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.1, pf.Config.Temperature)
	assert.Equal(t, "json_object", pf.Config.Format)
	require.Len(t, pf.Messages, 2)
	assert.Equal(t, "system", pf.Messages[0].Role)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/prompt.yaml")
		assert.Error(t, err)
	})

	t.Run("no messages", func(t *testing.T) {
		path := writePrompt(t, "config:\n  temperature: 0.5\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("broken yaml", func(t *testing.T) {
		path := writePrompt(t, "messages: [broken")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestRenderMessages(t *testing.T) {
	path := writePrompt(t, `
messages:
  - role: system
    content: "Каталог: {{.Catalog}}"
  - role: user
    content: "{{.Query}}"
`)

	pf, err := Load(path)
	require.NoError(t, err)

	rendered, err := pf.RenderMessages(map[string]string{
		"Catalog": "чай и кофе",
		"Query":   "хочу подарок до 3000 рублей",
	})
	require.NoError(t, err)

	assert.Equal(t, "Каталог: чай и кофе", rendered[0].Content)
	assert.Equal(t, "хочу подарок до 3000 рублей", rendered[1].Content)
}

func TestSystemText(t *testing.T) {
	path := writePrompt(t, `
messages:
  - role: system
    content: "системный текст"
  - role: user
    content: "запрос"
`)

	pf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "системный текст", pf.SystemText())
}
