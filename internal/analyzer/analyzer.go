// Package analyzer runs the resolution -> location -> decompilation
// pipeline for one request at a time and aggregates the results.
package analyzer

import (
	"context"
	"log/slog"
	"os"

	"github.com/jarscope/jarscope/internal/jar"
	"github.com/jarscope/jarscope/internal/maven"
	"github.com/jarscope/jarscope/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// Resolver materializes the transitive artifact closure of a descriptor.
type Resolver interface {
	Resolve(ctx context.Context, pomPath, workDir string) ([]string, error)
}

// Decompiler produces source text for one (artifact, entry) pair.
type Decompiler interface {
	Decompile(ctx context.Context, jarPath, entryPath string) (*pipeline.DecompiledUnit, error)
}

// defaultDecompileParallelism bounds concurrent decompiler subprocesses
// within one request.
const defaultDecompileParallelism = 4

// workDirPrefix names temp work directories generated for requests that
// did not specify one.
const workDirPrefix = "maven_analyze_"

// Analyzer coordinates the pipeline stages. Work directories act as an
// explicit cache resource: artifacts materialized into a caller-specified
// workDir persist across requests, and never get deleted by the pipeline.
type Analyzer struct {
	resolver   Resolver
	decompiler Decompiler
	cache      *resolutionCache
	workRoot   string
	limit      int
	log        *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkRoot sets the parent directory for generated work directories.
// Empty means the system temp dir.
func WithWorkRoot(root string) Option {
	return func(a *Analyzer) { a.workRoot = root }
}

// WithCacheSize enables the in-memory resolution cache with the given
// capacity. Zero or negative disables caching.
func WithCacheSize(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.cache = newResolutionCache(n)
		}
	}
}

// WithDecompileParallelism bounds concurrent decompilations per request.
func WithDecompileParallelism(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.limit = n
		}
	}
}

// New creates an Analyzer over the given resolver and decompiler.
func New(resolver Resolver, decompiler Decompiler, log *slog.Logger, opts ...Option) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	a := &Analyzer{
		resolver:   resolver,
		decompiler: decompiler,
		limit:      defaultDecompileParallelism,
		log:        log.With("component", "analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze resolves the request's dependencies, scans the resulting
// artifacts for the target class names, and aggregates the outcome.
// Validation failures and resolution failures are total; archive-level
// failures are partial and recorded in the result.
func (a *Analyzer) Analyze(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	workDir, generated, err := a.ensureWorkDir(req.WorkDir)
	if err != nil {
		return nil, err
	}

	jars, err := a.resolveArtifacts(ctx, req, workDir)
	if err != nil {
		if generated {
			os.RemoveAll(workDir)
		}
		return nil, err
	}

	scan, err := jar.Locate(ctx, jars, req.TargetClasses)
	if err != nil {
		return nil, err
	}

	result := aggregate(req, jars, scan)
	result.WorkDir = workDir
	result.TempDir = generated
	a.log.Info("analysis complete",
		"artifacts", len(jars),
		"found", result.Summary.FoundCount,
		"missing", len(result.Summary.MissingNames))
	return result, nil
}

// DecompileOne decompiles a single (artifact, entry) pair.
func (a *Analyzer) DecompileOne(ctx context.Context, req pipeline.DecompileRequest) (*pipeline.DecompiledUnit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return a.decompiler.Decompile(ctx, req.JarPath, req.ClassFilePath)
}

// FindAndDecompile runs Analyze and then decompiles every located class.
// Decompilations of distinct units are independent and run in parallel;
// per-unit failures are recorded in the unit and never abort siblings.
func (a *Analyzer) FindAndDecompile(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.CombinedResult, error) {
	analysis, err := a.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	type slot struct {
		name string
		idx  int
		loc  pipeline.ClassLocation
	}
	var slots []slot
	for name, locs := range analysis.FoundClasses {
		for i, loc := range locs {
			slots = append(slots, slot{name: name, idx: i, loc: loc})
		}
	}

	units := make([]pipeline.DecompiledUnit, len(slots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i, sl := range slots {
		g.Go(func() error {
			unit, err := a.decompiler.Decompile(gctx, sl.loc.JarPath, sl.loc.FilePath)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err() // cancellation is total, tool failures are not
				}
				units[i] = pipeline.DecompiledUnit{
					ClassName:     sl.loc.ClassName,
					JarPath:       sl.loc.JarPath,
					ClassFilePath: sl.loc.FilePath,
					Failure:       pipeline.AsError(err),
				}
				return nil
			}
			units[i] = *unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := &pipeline.CombinedResult{
		AnalysisResult:    *analysis,
		DecompiledClasses: make(map[string][]pipeline.DecompiledUnit),
	}
	// Reassemble per-name sequences in location order.
	for name, locs := range analysis.FoundClasses {
		combined.DecompiledClasses[name] = make([]pipeline.DecompiledUnit, len(locs))
	}
	for i, sl := range slots {
		combined.DecompiledClasses[sl.name][sl.idx] = units[i]
	}
	return combined, nil
}

// ensureWorkDir returns the request's work directory, creating a temp one
// when none was specified. The second return reports whether it was
// generated for this request.
func (a *Analyzer) ensureWorkDir(workDir string) (string, bool, error) {
	if workDir != "" {
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return "", false, pipeline.Errorf(pipeline.KindDescriptorWrite,
				"create work dir %s: %v", workDir, err)
		}
		return workDir, false, nil
	}
	dir, err := os.MkdirTemp(a.workRoot, workDirPrefix)
	if err != nil {
		return "", false, pipeline.Errorf(pipeline.KindDescriptorWrite,
			"create temp work dir: %v", err)
	}
	return dir, true, nil
}

// resolveArtifacts writes the descriptor and runs the resolver, consulting
// the cache first. Snapshot-bearing requests bypass the cache because their
// artifact content may legitimately change between runs.
func (a *Analyzer) resolveArtifacts(ctx context.Context, req pipeline.ResolutionRequest, workDir string) ([]string, error) {
	cacheable := a.cache != nil && !req.HasSnapshots()
	var key uint64
	if cacheable {
		key = fingerprint(req, workDir)
		if jars, ok := a.cache.lookup(key); ok {
			a.log.Debug("resolution cache hit", "artifacts", len(jars))
			return jars, nil
		}
	}

	pomPath, err := maven.WritePOM(workDir, req.Dependencies, req.Repositories)
	if err != nil {
		return nil, err
	}
	jars, err := a.resolver.Resolve(ctx, pomPath, workDir)
	if err != nil {
		return nil, err
	}

	if cacheable {
		a.cache.store(key, jars)
	}
	return jars, nil
}
