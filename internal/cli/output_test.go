package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fmea/internal/config"
	"github.com/roach88/fmea/internal/docstore"
	"github.com/roach88/fmea/internal/query"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]int{"removed": 3})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"removed": 3.0}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeStore, "failed to open store", map[string]string{"path": "data"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeStore, resp.Error.Code)
	assert.Equal(t, "failed to open store", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

type greeting struct{ name string }

func (g greeting) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "hello %s\n", g.name)
	return err
}

func TestOutputFormatter_TextUsesTextWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(greeting{name: "ada"}))
	assert.Equal(t, "hello ada\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success("plain"))
	assert.Equal(t, "plain\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			err := formatter.Error(ErrCodeConfig, "invalid configuration", "backend: postgres")
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "Error [E002]: invalid configuration")
			assert.Equal(t, tt.wantDetails, bytes.Contains(buf.Bytes(), []byte("Details:")))
		})
	}
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.VerboseLog("opening %s", "data")
	assert.Empty(t, out.String())
	assert.Equal(t, "opening data\n", diag.String())

	formatter.Verbose = false
	formatter.VerboseLog("dropped")
	assert.Equal(t, "opening data\n", diag.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "findings", errors.New("inner")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.EqualError(t, errors.Unwrap(wrapped), "findings: inner")
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("boom"), ErrCodeGeneric},
		{"explicit code", NewExitError(ExitFailure, "findings").WithCode(ErrCodeIntegrity), ErrCodeIntegrity},
		{"not found", fmt.Errorf("rpn: %w", query.ErrNotFound), ErrCodeNotFound},
		{"wrapped not found", WrapExitError(ExitCommandError, "project", fmt.Errorf("x: %w", query.ErrNotFound)), ErrCodeNotFound},
		{"config", fmt.Errorf("load: %w", config.ErrInvalid), ErrCodeConfig},
		{"unreadable document", fmt.Errorf("%w: bad json", docstore.ErrUnreadable), ErrCodeStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}
