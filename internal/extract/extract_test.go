package extract

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cert-organizer/constants"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultRules(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return e
}

func TestExtractEndToEnd(t *testing.T) {
	e := newTestExtractor(t)
	text := "Maria Silva Santos Data 10 de Maio de 2024 Curso de Python 3 Completo Carga horaria de 40h Instrutores: João"

	got := e.Extract(text)

	assert.Equal(t, "Maria Silva Santos", got.Name)
	assert.Equal(t, "10 de Maio de 2024", got.Date)
	assert.Equal(t, "40h", got.Duration)
	assert.Contains(t, got.Course, "Python 3")
	assert.Equal(t, constants.StatusComplete, got.Status)
}

func TestExtractRawOCRText(t *testing.T) {
	e := newTestExtractor(t)
	raw := "CERTIFICADO DE CONCLUSÃO\n\nNúmero do certificado: UC-4f2a-9b\nude.my/UC-4f2a-9b\n\n" +
		"Curso de SQL para Análise de Dados\nInstrutores: Fulano de Tal\n" +
		"João Pedro AJves\nData 3 de março de 2023\nDuração: 12h30min\n"

	got := e.Extract(raw)

	assert.Equal(t, "João Pedro Alves", got.Name)
	assert.Equal(t, "SQL para Análise de Dados", got.Course)
	assert.Equal(t, "12h30min", got.Duration)
	assert.Equal(t, "3 de março de 2023", got.Date)
	assert.Equal(t, constants.StatusComplete, got.Status)
}

func TestExtractEmptyText(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("")
	assert.Empty(t, got.Name)
	assert.Empty(t, got.Course)
	assert.Empty(t, got.Duration)
	assert.Empty(t, got.Date)
	assert.Equal(t, constants.StatusIncomplete, got.Status)
}

func TestExtractFieldsAreIndependent(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("Carga horária de 8h emitido em 01/02/2022")
	assert.Empty(t, got.Name)
	assert.Empty(t, got.Course)
	assert.Equal(t, "8h", got.Duration)
	assert.Equal(t, "01/02/2022", got.Date)
	assert.Equal(t, constants.StatusIncomplete, got.Status)
}

func TestLoadRulesOverridesNamedLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name_stoplist: [silva]\ncorrections: []\n"), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"silva"}, rules.NameStoplist)
	assert.Empty(t, rules.Corrections)
	assert.Equal(t, DefaultRules().CourseTerminators, rules.CourseTerminators)

	e, err := NewExtractor(rules, nil)
	require.NoError(t, err)
	got := e.Extract("Maria Silva Data 10 de Maio de 2024")
	assert.Empty(t, got.Name)
}

func TestLoadRulesErrors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tech_keywords: ['(unclosed']\n"), 0o644))
	_, err = LoadRules(bad)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("course_terminators: []\n"), 0o644))
	_, err = LoadRules(empty)
	assert.Error(t, err)
}

func TestLoadRulesEmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
	assert.Contains(t, rules.NameStoplist, "python")
	assert.NotEmpty(t, rules.Corrections)
}
