package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"formflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petYAML = `
title: "  Pets  "
questions:
  - id: 10
    kind: multipleChoice
    question: Do you have a pet?
    singleAnswerOnly: true
    choices:
      - {id: 1, label: "Yes"}
      - {id: 2, label: "No"}
    branchingRules:
      - {triggerChoiceId: 2, targetQuestionId: 30}
  - id: 20
    kind: textInput
    question: What is its name?
    maxLength: 40
  - id: 30
    kind: table
    question: Contact
    columns:
      - {id: 1, headerTitle: Email, kind: textInput}
      - id: 2
        headerTitle: Channel
        kind: dropdown
        choices:
          - {id: 7, label: Mail}
`

const petJSON = `{
  "title": "Pets",
  "questions": [
    {"id": 1, "kind": "textInput", "question": "Name?"}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFormYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pets.yaml", petYAML)

	form, err := LoadForm(path)
	require.NoError(t, err)

	assert.Equal(t, "Pets", form.Title)
	require.Len(t, form.Questions, 3)
	assert.Equal(t, domain.KindMultipleChoice, form.Questions[0].Kind)
	assert.Equal(t, []domain.Rule{{TriggerChoiceID: 2, TargetQuestionID: 30}}, form.Questions[0].Rules)
	require.NotNil(t, form.Questions[1].MaxLength)
	assert.Equal(t, 40, *form.Questions[1].MaxLength)
	assert.Equal(t, domain.ColumnDropdown, form.Questions[2].Columns[1].Kind)
	assert.NoError(t, domain.ValidateForm(form.Title, form.Questions))
}

func TestLoadFormJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pets.json", petJSON)

	form, err := LoadForm(path)
	require.NoError(t, err)
	assert.Equal(t, "Pets", form.Title)
	assert.Len(t, form.Questions, 1)
}

func TestLoadFormRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadForm(writeFile(t, dir, "typo.yaml", "title: x\nquestions: []\nbranchRules: []\n"))
	assert.Error(t, err)

	_, err = LoadForm(writeFile(t, dir, "typo.json", `{"title": "x", "qestions": []}`))
	assert.Error(t, err)
}

func TestLoadFormUnsupportedExtension(t *testing.T) {
	_, err := LoadForm(writeFile(t, t.TempDir(), "form.txt", "title: x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", petJSON)
	writeFile(t, dir, "a.yaml", petYAML)
	writeFile(t, dir, "README.md", "# not a form")

	forms, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Len(t, forms[0].Questions, 3)
	assert.Len(t, forms[1].Questions, 1)
}

func TestLoadDirRejectsInvalidForm(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"title": "", "questions": []}`)

	_, err := LoadDir(dir)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.Problems)
}
