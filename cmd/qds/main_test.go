package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type cliResult struct {
	exitCode int
	stdout   string
	stderr   string
}

func runCLI(t *testing.T, args []string, stdin string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return cliResult{exitCode: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestCLIVectors(t *testing.T) {
	cases := []struct {
		name           string
		args           []string
		stdin          string
		exitCode       int
		stdout         string
		stderrContains string
	}{
		{"canonicalize lenient", []string{"canonicalize"}, "{b:2; a='x',}", 0, `{"a":"x","b":2}`, ""},
		{"canonicalize stdin dash", []string{"canonicalize", "-"}, `[1.0, 2]`, 0, `[1,2]`, ""},
		{"canonicalize duplicate", []string{"canonicalize"}, `{"a":1,"a":2}`, 2, "", "DUPLICATE_KEY"},
		{"canonicalize syntax", []string{"canonicalize"}, `{"a":`, 2, "", "SYNTAX_ERROR"},
		{"pretty", []string{"pretty"}, `{"a":1,"b":[1,2]}`, 0, "{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}\n", ""},
		{"pretty indent flag", []string{"pretty", "--indent=0"}, `{"a":1,"b":[1,2]}`, 0, "{\"a\":1,\"b\":[1,2]}\n", ""},
		{"verify ok", []string{"verify"}, `{"a":1}`, 0, "", "ok"},
		{"verify quiet", []string{"verify", "-q"}, `{"a":1}`, 0, "", ""},
		{"verify not canonical", []string{"verify"}, `{"b":1,"a":2}`, 2, "", "NOT_CANONICAL"},
		{"no command", nil, "", 2, "", "error:"},
		{"unknown command", []string{"frobnicate"}, "", 2, "", "error:"},
		{"unknown flag", []string{"verify", "--nope"}, "", 2, "", "error:"},
		{"bad log level", []string{"--log.level=loud", "verify"}, `1`, 2, "", "log.level"},
		{"missing file", []string{"verify", "/definitely/not/here.json"}, "", 2, "", "CLI_USAGE"},
		{"help", []string{"--help"}, "", 0, "", "usage: qds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, tc.args, tc.stdin)
			require.Equal(t, tc.exitCode, res.exitCode, "stderr: %s", res.stderr)
			require.Equal(t, tc.stdout, res.stdout)
			if tc.stderrContains != "" {
				require.Contains(t, res.stderr, tc.stderrContains)
			}
		})
	}
}

func TestCLIDepthBomb(t *testing.T) {
	depth := 1200
	input := strings.Repeat("[", depth) + strings.Repeat("]", depth)
	res := runCLI(t, []string{"canonicalize"}, input)
	require.Equal(t, 2, res.exitCode)
	require.Contains(t, res.stderr, "NESTING_TOO_DEEP")
}

func TestCLISaveLoad(t *testing.T) {
	for _, kind := range []string{"file", "bolt"} {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store")
			flags := []string{"--store.kind=" + kind, "--store.path=" + path, "--log.level=error"}

			res := runCLI(t, append(flags, "save", "doc"), `{b:[1,2], a:"x"}`)
			require.Equal(t, 0, res.exitCode, res.stderr)

			res = runCLI(t, append(flags, "load", "--compact", "doc"), "")
			require.Equal(t, 0, res.exitCode, res.stderr)
			require.Equal(t, "{\"a\":\"x\",\"b\":[1,2]}\n", res.stdout)

			res = runCLI(t, append(flags, "load", "missing"), "")
			require.Equal(t, 2, res.exitCode)
			require.Contains(t, res.stderr, "KEY_NOT_FOUND")

			res = runCLI(t, append(flags, "save", "bad=key"), `1`)
			require.Equal(t, 2, res.exitCode)
			require.Contains(t, res.stderr, "INVALID_ENTRY")
		})
	}
}

func TestCLIConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "qds.yaml")
	storePath := filepath.Join(dir, "data.qds")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  kind: file\n  path: "+storePath+"\nformat:\n  indent: 4\nlog:\n  level: warn\n"), 0o600))

	res := runCLI(t, []string{"--config=" + cfgPath, "save", "k"}, `{"a":[1,2]}`)
	require.Equal(t, 0, res.exitCode, res.stderr)
	data, err := os.ReadFile(storePath)
	require.NoError(t, err)
	require.Equal(t, "k={\"a\":[1,2]}\n", string(data))

	res = runCLI(t, []string{"--config=" + cfgPath, "load", "k"}, "")
	require.Equal(t, 0, res.exitCode, res.stderr)
	require.Equal(t, "{\"a\": [\n    1,\n    2\n]}\n", res.stdout)

	deep := filepath.Join(dir, "deep.yaml")
	require.NoError(t, os.WriteFile(deep, []byte("parse:\n  max_depth: 2000\n"), 0o600))
	res = runCLI(t, []string{"--config=" + deep, "canonicalize"}, strings.Repeat("[", 1500)+strings.Repeat("]", 1500))
	require.Equal(t, 2, res.exitCode)
	require.Contains(t, res.stderr, "CLI_USAGE")
	require.Contains(t, res.stderr, "parse.max_depth")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("store:\n  colour: red\n"), 0o600))
	res = runCLI(t, []string{"--config=" + bad, "verify"}, `1`)
	require.Equal(t, 2, res.exitCode)
	require.Contains(t, res.stderr, "colour")
}
