package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config {
	return config{
		MemLimit:  defaultMemLimit,
		Monitor:   "stdout",
		ItemWidth: defaultItemWidth,
	}
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_expandFiles(t *testing.T) {
	dir := t.TempDir()
	defs := writeTestFile(t, dir, "defs.gpm", "$DEF,GREET,<hello ~1>;")
	prog := writeTestFile(t, dir, "main.gpm", "$GREET,world;\n>")
	short := writeTestFile(t, dir, "short.gpm", "$GREET,")

	for _, tc := range []struct {
		name    string
		cfg     func(cfg *config)
		args    []string
		stdin   string
		stdout  string
		stderr  []string
		wantErr string
	}{
		{
			name:   "files in order",
			args:   []string{defs, prog},
			stdout: "hello world\n",
		},
		{
			name:   "stdin by default",
			stdin:  "$DEF,A,<a>;$A;$A;>",
			stdout: "aa",
		},
		{
			name:   "stdin by dash",
			args:   []string{defs, "-"},
			stdin:  "$GREET,you;>",
			stdout: "hello you",
		},
		{
			name:    "missing file",
			args:    []string{defs, filepath.Join(dir, "nope.gpm")},
			wantErr: "failed to open",
		},
		{
			name:    "unexpected end",
			args:    []string{defs, short},
			wantErr: "unexpected end of input at " + short + ":1",
		},
		{
			name:    "monitor on stdout",
			stdin:   "$FOO;>",
			stdout:  "\nMONITOR: Undefined name FOO" + monitorCalls(entered("FOO")),
			wantErr: "undefined name: FOO",
		},
		{
			name:    "monitor on stderr",
			cfg:     func(cfg *config) { cfg.Monitor = "stderr" },
			stdin:   "a$FOO;>",
			stdout:  "a",
			stderr:  []string{"\nMONITOR: Undefined name FOO\nCurrent macros are"},
			wantErr: "undefined name: FOO",
		},
		{
			name:    "dump after error",
			cfg:     func(cfg *config) { cfg.Dump = true },
			stdin:   "$DEF,A,<x>;$FOO;>",
			stdout:  "\nMONITOR: Undefined name FOO" + monitorCalls(entered("FOO")),
			stderr:  []string{"# GPM Dump\n", "  @39 A = \"x\"\n", "# Calls\n"},
			wantErr: "undefined name: FOO",
		},
		{
			name:    "memory limit",
			cfg:     func(cfg *config) { cfg.MemLimit = 40 },
			stdin:   "$DEF,A,<x>;>",
			wantErr: "memory limit exceeded",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			if tc.cfg != nil {
				tc.cfg(&cfg)
			}
			var stdout, stderr strings.Builder
			err := expandFiles(context.Background(), cfg, tc.args, strings.NewReader(tc.stdin), &stdout, &stderr)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.stdout, stdout.String(), "expected output")
			for _, part := range tc.stderr {
				assert.Contains(t, stderr.String(), part)
			}
			if len(tc.stderr) == 0 {
				assert.Equal(t, "", stderr.String(), "expected no error output")
			}
		})
	}
}

func Test_dumpCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "in.gpm", "$DEF,A,<xy>;$A;>")

	var stdout, stderr strings.Builder
	rootCmd.SetArgs([]string{"dump", path})
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "xy\n# GPM Dump\n"), "expected output then dump, got %q", out)
	assert.Contains(t, out, "  @39 A = \"xy\"\n")
	assert.Contains(t, out, "# Memory\n")
	assert.NotContains(t, out, "# Calls\n  @")
}
