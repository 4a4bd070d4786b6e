package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("PARSE_ERROR", "document is not valid JSON", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "PARSE_ERROR", resp.Error.Code)
	assert.Equal(t, "document is not valid JSON", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"position": "test.json:1:12"}
	err := formatter.Error("PARSE_ERROR", "schema violation", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("All documents valid")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "All documents valid")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E002", "catalog not found", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E002]")
	assert.Contains(t, buf.String(), "catalog not found")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"position": "test.json:1:1"}
	err := formatter.Error("PARSE_ERROR", "schema violation", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [PARSE_ERROR]")
	assert.Contains(t, buf.String(), "Details:")
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
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Validating %s", "test.json")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Validating test.json")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestOutputFormatter_VerboseLogSeparateWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errBuf,
		Verbose:   true,
	}

	formatter.VerboseLog("diagnostic")

	// Diagnostics must not corrupt the JSON stream on Writer.
	assert.Empty(t, out.String())
	assert.Contains(t, errBuf.String(), "diagnostic")
}

func TestExitError(t *testing.T) {
	plain := NewExitError(ExitFailure, "verification failed")
	assert.Equal(t, "verification failed", plain.Error())
	assert.Equal(t, ExitFailure, GetExitCode(plain))

	wrapped := WrapExitError(ExitCommandError, "failed to open catalog", assert.AnError)
	assert.Contains(t, wrapped.Error(), "failed to open catalog")
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))

	// Non-ExitError defaults to failure
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "UNKNOWN_TYPE",
		Message: "document contains a type tag this registry does not know",
		Details: []string{"tag: Ghost"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN_TYPE", decoded.Code)
	assert.Equal(t, "document contains a type tag this registry does not know", decoded.Message)
}
