package gitexec

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipNoGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

func initRepo(t *testing.T) *Runner {
	t.Helper()
	dir := t.TempDir()
	r := New(dir, WithEnv(
		"GIT_AUTHOR_NAME=tester",
		"GIT_AUTHOR_EMAIL=tester@example.com",
		"GIT_COMMITTER_NAME=tester",
		"GIT_COMMITTER_EMAIL=tester@example.com",
	))
	_, err := r.Run(context.Background(), "init", "-q")
	require.NoError(t, err)
	return r
}

func TestSplitZ(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: []string{}},
		{name: "single", in: "a\x00", want: []string{"a"}},
		{name: "multi", in: "a\x00b/c.txt\x00", want: []string{"a", "b/c.txt"}},
		{name: "no trailing nul", in: "a\x00b", want: []string{"a", "b"}},
		{name: "embedded newline", in: "a\nb\x00c\x00", want: []string{"a\nb", "c"}},
	}
	for _, tts := range tests {
		tt := tts
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SplitZ([]byte(tt.in))
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i], got[i])
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines([]byte("one\r\ntwo\n\nthree\n"))
	require.Equal(t, []string{"one", "two", "three"}, got)
}

func TestCmdErrorMessage(t *testing.T) {
	err := &CmdError{
		Args:   []string{"ls-tree", "nosuchref"},
		Stderr: "fatal: Not a valid object name nosuchref",
		Err:    assert.AnError,
	}
	assert.Contains(t, err.Error(), "git ls-tree nosuchref")
	assert.Contains(t, err.Error(), "Not a valid object name")
	assert.True(t, err.OutputContains("not a valid object"))
	assert.False(t, err.OutputContains("nothing to commit"))
}

func TestRunCapturesStderr(t *testing.T) {
	skipNoGit(t)
	r := initRepo(t)

	_, err := r.Run(context.Background(), "ls-tree", "nosuchref")
	require.Error(t, err)
	var cmdErr *CmdError
	require.ErrorAs(t, err, &cmdErr)
	assert.NotEmpty(t, cmdErr.Stderr)
}

func TestRunZRoundtrip(t *testing.T) {
	skipNoGit(t)
	r := initRepo(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(r.Dir(), "one.txt"), []byte("1"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir(), "two.txt"), []byte("2"), 0600))
	_, err := r.Run(ctx, "add", ".")
	require.NoError(t, err)

	records, err := r.RunZ(ctx, "ls-files", "-z")
	require.NoError(t, err)
	assert.Equal(t, []string{"one.txt", "two.txt"}, records)
}

func TestRunStringTrims(t *testing.T) {
	skipNoGit(t)
	r := initRepo(t)

	out, err := r.RunString(context.Background(), "rev-parse", "--is-inside-work-tree")
	require.NoError(t, err)
	assert.Equal(t, "true", out)
}
