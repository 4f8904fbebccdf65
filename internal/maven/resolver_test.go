package maven

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarscope/jarscope/internal/pipeline"
)

// writeStub writes an executable shell script standing in for the build tool.
// Scripts run with cmd.Dir set to the work directory, so relative paths in
// the body land inside it.
func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mvn-stub")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newWorkDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorName), []byte("<project/>"), 0o644))
	return dir
}

func TestResolve(t *testing.T) {
	t.Run("collects jar artifacts sorted and deduplicated", func(t *testing.T) {
		stub := writeStub(t, `
touch dependencies/zeta-1.0.jar
touch dependencies/alpha-2.1.jar
touch dependencies/notes.txt
exit 0`)
		work := newWorkDir(t)
		r := NewResolver(stub, 0, nil)

		jars, err := r.Resolve(context.Background(), filepath.Join(work, DescriptorName), work)
		require.NoError(t, err)
		require.Len(t, jars, 2)
		assert.Equal(t, "alpha-2.1.jar", filepath.Base(jars[0]))
		assert.Equal(t, "zeta-1.0.jar", filepath.Base(jars[1]))
		for _, j := range jars {
			assert.True(t, filepath.IsAbs(j))
		}
	})

	t.Run("successful run with no artifacts is a resolution failure", func(t *testing.T) {
		stub := writeStub(t, "exit 0")
		work := newWorkDir(t)
		r := NewResolver(stub, 0, nil)

		_, err := r.Resolve(context.Background(), filepath.Join(work, DescriptorName), work)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindResolutionFailed, pipeline.KindOf(err))
		assert.Contains(t, pipeline.AsError(err).Message, "no artifacts resolved")
	})

	t.Run("non-zero exit carries the tool output verbatim", func(t *testing.T) {
		stub := writeStub(t, `
echo "[ERROR] BUILD FAILURE" >&2
echo "[ERROR] Could not find artifact org.example:missing:jar:9.9" >&2
exit 1`)
		work := newWorkDir(t)
		r := NewResolver(stub, 0, nil)

		_, err := r.Resolve(context.Background(), filepath.Join(work, DescriptorName), work)
		require.Error(t, err)
		pe := pipeline.AsError(err)
		assert.Equal(t, pipeline.KindResolutionFailed, pe.Kind)
		assert.Contains(t, pe.Diagnostic, "BUILD FAILURE")
		assert.Contains(t, pe.Diagnostic, "org.example:missing")
	})

	t.Run("connectivity patterns map to network_unavailable", func(t *testing.T) {
		for _, line := range []string{
			"Caused by: java.net.UnknownHostException: repo1.maven.org",
			"Connect to repo1.maven.org:443 failed: Connection refused",
			"Could not transfer artifact org.example:lib:pom:1.0",
		} {
			stub := writeStub(t, `echo "`+line+`" >&2; exit 1`)
			work := newWorkDir(t)
			r := NewResolver(stub, 0, nil)

			_, err := r.Resolve(context.Background(), filepath.Join(work, DescriptorName), work)
			require.Error(t, err)
			assert.Equal(t, pipeline.KindNetworkUnavailable, pipeline.KindOf(err), "output: %s", line)
		}
	})

	t.Run("missing path-qualified binary yields tool_not_found", func(t *testing.T) {
		work := newWorkDir(t)
		r := NewResolver(filepath.Join(t.TempDir(), "no-such-mvn"), 0, nil)

		_, err := r.Resolve(context.Background(), filepath.Join(work, DescriptorName), work)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindToolNotFound, pipeline.KindOf(err))
	})

	t.Run("missing binary on PATH yields tool_not_found", func(t *testing.T) {
		work := newWorkDir(t)
		r := NewResolver("no-such-mvn-on-path", 0, nil)

		_, err := r.Resolve(context.Background(), filepath.Join(work, DescriptorName), work)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindToolNotFound, pipeline.KindOf(err))
	})

	t.Run("slow tool is terminated and reported as timeout", func(t *testing.T) {
		// The background child inherits the output pipes; termination must
		// cover it too or the call blocks for the child's full lifetime.
		stub := writeStub(t, "sleep 10 &\nsleep 10")
		work := newWorkDir(t)
		r := NewResolver(stub, 100*time.Millisecond, nil)

		start := time.Now()
		_, err := r.Resolve(context.Background(), filepath.Join(work, DescriptorName), work)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindTimeout, pipeline.KindOf(err))
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("caller cancellation is propagated as context error", func(t *testing.T) {
		stub := writeStub(t, "sleep 10")
		work := newWorkDir(t)
		r := NewResolver(stub, 0, nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(100 * time.Millisecond)
			cancel()
		}()
		_, err := r.Resolve(ctx, filepath.Join(work, DescriptorName), work)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestMatchesConnectivityFailure(t *testing.T) {
	assert.True(t, matchesConnectivityFailure("java.net.UnknownHostException: host"))
	assert.True(t, matchesConnectivityFailure("TRANSFER FAILED FOR https://repo"))
	assert.False(t, matchesConnectivityFailure("Could not find artifact org.example:x"))
}
