package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartridge/internal/entity"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"id": "g1"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeOpenFailed, "cannot open package", map[string]string{"dir": "x"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E002]: cannot open package")
	assert.NotContains(t, buf.String(), "Details:")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error(ErrCodeOpenFailed, "cannot open package", map[string]string{"dir": "x"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_FailEngineError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	cause := fmt.Errorf("delete: %w", entity.NewAmbiguous(entity.KindQuiz, `title="Q1"`, []string{"g1", "g2"}))
	err := formatter.Fail(ErrCodeGeneric, "delete-quiz failed", cause)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, entity.IsAmbiguous(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "AMBIGUOUS_SELECTION", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "2 Quiz entities match")
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_FailOtherError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Fail(ErrCodeWriteFailed, "write package", errors.New("disk full"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E003]: write package: disk full")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Loading %s", "course")

			assert.Empty(t, buf.String(), "verbose output must not corrupt JSON")
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "Loading course")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", errors.New("cause")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "inner: cause", errors.Unwrap(wrapped).Error())
}
