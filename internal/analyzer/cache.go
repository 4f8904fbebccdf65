package analyzer

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jarscope/jarscope/internal/pipeline"
)

// resolutionCache memoizes resolved artifact path lists per request
// fingerprint, skipping the build-tool invocation for repeat requests that
// share a work directory. Entries are re-validated against the filesystem
// on lookup: if any cached artifact has disappeared, the entry is dropped
// and resolution runs again.
type resolutionCache struct {
	entries *lru.Cache[uint64, []string]
}

func newResolutionCache(size int) *resolutionCache {
	cache, err := lru.New[uint64, []string](size)
	if err != nil {
		// lru.New only fails for non-positive sizes, which options filter out.
		panic(err)
	}
	return &resolutionCache{entries: cache}
}

func (c *resolutionCache) lookup(key uint64) ([]string, bool) {
	jars, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	for _, j := range jars {
		if _, err := os.Stat(j); err != nil {
			c.entries.Remove(key)
			return nil, false
		}
	}
	return jars, true
}

func (c *resolutionCache) store(key uint64, jars []string) {
	c.entries.Add(key, jars)
}

// fingerprint hashes the resolution-relevant parts of a request: the
// ordered coordinates, the ordered repositories, and the work directory.
// Target class names are excluded; they do not affect resolution.
func fingerprint(req pipeline.ResolutionRequest, workDir string) uint64 {
	d := xxhash.New()
	fmt.Fprintf(d, "workdir\x00%s\x00", workDir)
	for _, dep := range req.Dependencies {
		fmt.Fprintf(d, "dep\x00%s\x00", dep.String())
	}
	for _, repo := range req.Repositories {
		fmt.Fprintf(d, "repo\x00%s\x00%s\x00%t\x00", repo.ID, repo.URL, repo.AllowsSnapshots())
	}
	return d.Sum64()
}
