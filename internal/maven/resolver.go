package maven

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jarscope/jarscope/internal/pipeline"
)

// DependenciesDir is the flat subdirectory of the work directory that every
// resolved artifact is copied into.
const DependenciesDir = "dependencies"

// DefaultTimeout bounds one resolution run. Remote fetches can be slow, so
// the budget is generous but never unbounded.
const DefaultTimeout = 5 * time.Minute

// connectivityPatterns are substrings of Maven output that indicate the
// failure was network-level rather than a bad coordinate or descriptor.
var connectivityPatterns = []string{
	"unknownhostexception",
	"connection refused",
	"connection timed out",
	"connection reset",
	"no route to host",
	"network is unreachable",
	"could not transfer artifact",
	"transfer failed for",
}

// Resolver invokes Maven to materialize the transitive dependency closure
// of a synthesized descriptor. It performs no retries; callers decide
// whether to retry a whole request.
//
// Concurrent resolutions sharing a work directory race on Maven's local
// repository and on the flat copy directory. The resolver does not
// serialize across requests; Maven's own local-cache locking is relied
// upon, so shared work directories get best-effort, not exclusive,
// isolation.
type Resolver struct {
	bin     string
	timeout time.Duration
	log     *slog.Logger
}

// NewResolver creates a Resolver that runs bin (the mvn executable) with
// the given wall-clock timeout per invocation. Zero values fall back to
// "mvn" on PATH and DefaultTimeout.
func NewResolver(bin string, timeout time.Duration, log *slog.Logger) *Resolver {
	if bin == "" {
		bin = "mvn"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{bin: bin, timeout: timeout, log: log.With("component", "resolver")}
}

// Resolve runs dependency:copy-dependencies against the descriptor at
// pomPath and returns the deduplicated, ordered artifact paths copied into
// workDir/dependencies. The spawned process is terminated on timeout or
// caller cancellation; it is never left hanging.
func (r *Resolver) Resolve(ctx context.Context, pomPath, workDir string) ([]string, error) {
	targetDir := filepath.Join(workDir, DependenciesDir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, pipeline.Errorf(pipeline.KindDescriptorWrite,
			"create dependencies dir: %v", err)
	}

	absPom, err := filepath.Abs(pomPath)
	if err != nil {
		return nil, pipeline.Errorf(pipeline.KindValidation, "descriptor path: %v", err)
	}
	absTarget, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, pipeline.Errorf(pipeline.KindValidation, "target path: %v", err)
	}

	args := []string{
		"-f", absPom,
		"dependency:copy-dependencies",
		"-DoutputDirectory=" + absTarget,
		"-DincludeScope=compile",
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Dir = workDir
	// Maven forks child processes; kill the whole group on cancellation so
	// they cannot hold the output pipes open past the deadline, and give up
	// waiting on the pipes shortly after.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Info("invoking build tool", "bin", r.bin, "descriptor", absPom)
	start := time.Now()
	runErr := cmd.Run()
	r.log.Info("build tool finished", "duration", time.Since(start), "err", runErr)

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, pipeline.Errorf(pipeline.KindTimeout,
				"resolution exceeded %s and was terminated", r.timeout)
		}
		if ctx.Err() == context.Canceled {
			return nil, ctx.Err()
		}

		// A bare binary name fails PATH lookup with exec.ErrNotFound; a
		// path-qualified one fails at start with fs.ErrNotExist.
		if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) {
			return nil, pipeline.Errorf(pipeline.KindToolNotFound,
				"build tool %q not found", r.bin)
		}

		diag := strings.TrimSpace(stderr.String() + "\n" + stdout.String())
		if matchesConnectivityFailure(diag) {
			return nil, pipeline.NewError(pipeline.KindNetworkUnavailable,
				"build tool could not reach a remote repository").WithDiagnostic(diag)
		}
		return nil, pipeline.Errorf(pipeline.KindResolutionFailed,
			"build tool exited with an error").WithDiagnostic(diag)
	}

	jars, err := collectArtifacts(targetDir)
	if err != nil {
		return nil, err
	}
	if len(jars) == 0 {
		return nil, pipeline.NewError(pipeline.KindResolutionFailed,
			"no artifacts resolved").WithDiagnostic(strings.TrimSpace(stdout.String()))
	}
	return jars, nil
}

// collectArtifacts lists the *.jar files in dir, deduplicated and sorted so
// identical requests yield identical artifact orderings.
func collectArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pipeline.Errorf(pipeline.KindResolutionFailed,
			"read dependencies dir: %v", err)
	}

	seen := make(map[string]bool, len(entries))
	var jars []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jar") {
			continue
		}
		path, err := filepath.Abs(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if !seen[path] {
			seen[path] = true
			jars = append(jars, path)
		}
	}
	sort.Strings(jars)
	return jars, nil
}

func matchesConnectivityFailure(output string) bool {
	lower := strings.ToLower(output)
	for _, pat := range connectivityPatterns {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	return false
}
