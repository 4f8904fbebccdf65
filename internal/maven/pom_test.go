package maven

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarscope/jarscope/internal/pipeline"
)

func TestWritePOM(t *testing.T) {
	deps := []pipeline.Coordinate{
		{GroupID: "org.apache.commons", ArtifactID: "commons-lang3", Version: "3.12.0"},
		{GroupID: "com.google.guava", ArtifactID: "guava", Version: "33.0.0-jre"},
	}

	t.Run("renders dependencies without repositories", func(t *testing.T) {
		dir := t.TempDir()
		path, err := WritePOM(dir, deps, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, DescriptorName), path)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(raw)

		assert.Contains(t, content, "<groupId>temp.analyzer</groupId>")
		assert.Contains(t, content, "<artifactId>dependency-analyzer</artifactId>")
		assert.Contains(t, content, "<version>1.0-SNAPSHOT</version>")
		assert.Contains(t, content, "<artifactId>commons-lang3</artifactId>")
		assert.Contains(t, content, "<artifactId>guava</artifactId>")
		assert.NotContains(t, content, "<repositories>")
	})

	t.Run("renders repositories with snapshot flags", func(t *testing.T) {
		repos := []pipeline.Repository{
			{ID: "central", Name: "Maven Central", URL: "https://repo1.maven.org/maven2"},
			{ID: "private", URL: "https://nexus.example.com/releases", Snapshots: "false"},
		}
		dir := t.TempDir()
		path, err := WritePOM(dir, deps, repos)
		require.NoError(t, err)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(raw)

		assert.Contains(t, content, "<id>central</id>")
		assert.Contains(t, content, "<name>Maven Central</name>")
		assert.Contains(t, content, "<enabled>true</enabled>")
		assert.Contains(t, content, "<enabled>false</enabled>")
		// Name falls back to the id when absent.
		assert.Contains(t, content, "<name>private</name>")
	})

	t.Run("unwritable directory yields descriptor_write_error", func(t *testing.T) {
		_, err := WritePOM(filepath.Join(t.TempDir(), "missing", "deep"), deps, nil)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindDescriptorWrite, pipeline.KindOf(err))
	})
}
