package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driven/gate"
	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"run", "resume", "chapters", "version", "search", "index", "feedback", "mcp", "settings", "tui",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config-dir", "gate"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "auto", rootCmd.PersistentFlags().Lookup("gate").DefValue)
}

func TestNeeds(t *testing.T) {
	tests := []struct {
		args []string
		want Need
	}{
		{[]string{"run"}, NeedRevision},
		{[]string{"resume"}, NeedRevision},
		{[]string{"chapters", "list"}, NeedStore},
		{[]string{"version", "show"}, NeedStore},
		{[]string{"feedback"}, NeedStore},
		{[]string{"search"}, NeedSearch},
		{[]string{"index", "repair"}, NeedSearch},
		{[]string{"mcp", "serve"}, NeedSearch},
		{[]string{"tui"}, NeedSearch},
		{[]string{"settings"}, NeedSettings},
		{[]string{"settings", "llm"}, NeedSettings},
		{[]string{"version"}, NeedNothing},
	}

	for _, tt := range tests {
		t.Run(tt.args[len(tt.args)-1], func(t *testing.T) {
			cmd, _, err := rootCmd.Find(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, needOf(cmd))
		})
	}
}

func TestBootstrap_InstallsServices(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	SetServices(nil)
	defer cleanup()

	var got Options
	released := false
	SetBootstrap(func(_ context.Context, opts Options) (*Services, func(), error) {
		got = opts
		return &Services{Chapters: ts.chapters}, func() { released = true }, nil
	})
	defer SetBootstrap(nil)

	out, err := execute("--config-dir", t.TempDir(), "chapters", "list")
	release()

	require.NoError(t, err)
	assert.Equal(t, NeedStore, got.Need)
	assert.NotEmpty(t, got.ConfigDir)
	assert.Nil(t, got.Gate)
	assert.Contains(t, out, "Down the Rabbit-Hole")
	assert.True(t, released)
}

func TestBootstrap_RevisionGetsGate(t *testing.T) {
	ts, cleanup := setupTestServicesWith()
	defer cleanup()

	var got Options
	SetBootstrap(func(_ context.Context, opts Options) (*Services, func(), error) {
		got = opts
		return &Services{Revision: ts.revision}, nil, nil
	})
	defer SetBootstrap(nil)

	_, err := execute("--gate", "accept", "run", "alice.txt")

	require.NoError(t, err)
	assert.Equal(t, NeedRevision, got.Need)
	assert.IsType(t, gate.Auto{}, got.Gate)
}

func TestBootstrap_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	boom := errors.New("config broken")
	SetBootstrap(func(context.Context, Options) (*Services, func(), error) {
		return nil, nil, boom
	})
	defer SetBootstrap(nil)

	_, err := execute("chapters", "list")

	assert.ErrorIs(t, err, boom)
}

func TestBootstrap_SkippedForVersion(t *testing.T) {
	called := false
	SetBootstrap(func(context.Context, Options) (*Services, func(), error) {
		called = true
		return &Services{}, nil, nil
	})
	defer SetBootstrap(nil)

	_, err := execute("version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FOLIO_TEST_ENV_KEY=from-file\n"), 0600))
	t.Setenv("FOLIO_TEST_ENV_KEY", "")
	require.NoError(t, os.Unsetenv("FOLIO_TEST_ENV_KEY"))

	loadEnv(dir)

	assert.Equal(t, "from-file", os.Getenv("FOLIO_TEST_ENV_KEY"))
}

func TestSelectGate(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "decisions.yaml")
	require.NoError(t, os.WriteFile(script, []byte("decisions:\n  - decision: accept\n"), 0600))

	tests := []struct {
		name    string
		flag    string
		want    any
		wantErr error
	}{
		{name: "accept", flag: "accept", want: gate.Auto{}},
		{name: "console", flag: "console", want: &gate.Console{}},
		{name: "auto off a terminal", flag: "auto", want: &gate.Console{}},
		{name: "script", flag: "script:" + script, want: &gate.Script{}},
		{name: "script without path", flag: "script:", wantErr: domain.ErrInvalidConfig},
		{name: "unknown", flag: "carrier-pigeon", wantErr: domain.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := selectGate(tt.flag, strings.NewReader(""), io.Discard)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, g)
		})
	}
}
