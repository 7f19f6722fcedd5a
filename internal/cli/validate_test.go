package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWellTypedModel(t *testing.T) {
	path := writeModelFile(t, mixtureModel)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Validated 1 model(s)")
	assert.Contains(t, output, "query total: REAL")
}

func TestValidateJSON(t *testing.T) {
	path := writeModelFile(t, mixtureModel)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	report := resp.Data.([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "mixture", report["model"])
	queries := report["queries"].(map[string]interface{})
	assert.Equal(t, "REAL", queries["total"])
}

func TestValidateUntypableModel(t *testing.T) {
	// log of a negative constant has no lattice classification.
	path := writeModelFile(t, `
model: bad: {
	nodes: {
		c: {kind: "CONSTANT", value: -2}
		t: {kind: "LOG", inputs: ["c"]}
		q: {kind: "QUERY", inputs: ["t"]}
	}
}
`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeUntypable)
	assert.Equal(t, ExitFailure, GetExitCode(err), "untypable model is a validation failure, not a command error")
}

func TestValidateBrokenModel(t *testing.T) {
	path := writeModelFile(t, `
model: bad: {
	nodes: {
		e: {kind: "EXP", inputs: ["ghost"]}
		q: {kind: "QUERY", inputs: ["e"]}
	}
}
`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeCompileFailed)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
