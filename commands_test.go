package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/skynet/pkg/skynet"
)

func TestParamOptions_Pairs(t *testing.T) {
	po := &paramOptions{pairs: []string{"suburb=Brackenfell", "postal-code=7560", "note=a=b"}}

	p, err := po.params()
	require.NoError(t, err)
	assert.Equal(t, skynet.Params{
		"suburb":      "Brackenfell",
		"postal-code": "7560",
		"note":        "a=b",
	}, p)
}

func TestParamOptions_InvalidPair(t *testing.T) {
	for _, pair := range []string{"suburb", "=value"} {
		po := &paramOptions{pairs: []string{pair}}
		_, err := po.params()
		assert.Error(t, err, pair)
	}
}

func TestParamOptions_FileWithOverride(t *testing.T) {
	file := filepath.Join(t.TempDir(), "quote.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"collect-city":"Cape Town","parcel-weight":2.5}`), 0o644))

	po := &paramOptions{file: file, pairs: []string{"collect-city=Durban"}}
	p, err := po.params()
	require.NoError(t, err)

	assert.Equal(t, "Durban", p["collect-city"])
	assert.Equal(t, "2.5", p.String("parcel-weight"))
}

func TestParamOptions_BadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`[1,2]`), 0o644))

	_, err := (&paramOptions{file: file}).params()
	assert.Error(t, err)

	_, err = (&paramOptions{file: filepath.Join(t.TempDir(), "missing.json")}).params()
	assert.Error(t, err)
}

func TestWriteResponse(t *testing.T) {
	var out bytes.Buffer
	err := writeResponse(&out, skynet.NewResponse(skynet.NewMockResponse(200, `{"ok":true}`)))
	require.NoError(t, err)
	assert.Equal(t, "{\"ok\":true}\n", out.String())

	out.Reset()
	err = writeResponse(&out, skynet.NewResponse(skynet.NewMockResponse(404, `{"Message":"nope"}`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404 Not Found")
	assert.Equal(t, "{\"Message\":\"nope\"}\n", out.String())
}

// runCLI executes the root command against the offline mock transport.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SKYNET_USE_MOCK", "true")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--env-file=" + filepath.Join(t.TempDir(), "missing.env")}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Validate(t *testing.T) {
	out, err := runCLI(t, "validate", "--param", "suburb=Brackenfell", "-p", "postal-code=7560")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestCLI_Validate_MissingParam(t *testing.T) {
	_, err := runCLI(t, "validate", "--param", "suburb=Brackenfell")
	require.Error(t, err)
	assert.ErrorIs(t, err, skynet.ErrMissingField)
}

func TestCLI_Token(t *testing.T) {
	out, err := runCLI(t, "token")
	require.NoError(t, err)
	assert.Contains(t, out, `"SecurityToken":"2_`)
}

func TestCLI_PostalCodes(t *testing.T) {
	out, err := runCLI(t, "postal-codes", "Brackenfell")
	require.NoError(t, err)
	assert.Contains(t, out, "postalCodeId")
}

func TestCLI_WaybillPOD(t *testing.T) {
	out, err := runCLI(t, "waybill", "pod", "0812345678")
	require.NoError(t, err)
	assert.Contains(t, out, "PODImage")
}

func TestCLI_Track(t *testing.T) {
	out, err := runCLI(t, "track", "--concurrency", "2", "A1", "B2", "C3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"A1"`)
	assert.Contains(t, lines[1], `"B2"`)
	assert.Contains(t, lines[2], `"C3"`)
}

func TestCLI_Track_RequiresNumber(t *testing.T) {
	_, err := runCLI(t, "track")
	assert.Error(t, err)
}
