// Package decompiler converts one compiled class entry at a time into
// human-readable source text by driving an external decompiler binary.
package decompiler

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jarscope/jarscope/internal/jar"
	"github.com/jarscope/jarscope/internal/pipeline"
)

// DefaultTimeout bounds one decompiler invocation.
const DefaultTimeout = 30 * time.Second

// defaultArgs drive javap to emit disassembled bytecode with private
// members and constant values, matching the calling convention the
// pipeline was designed around. Other single-class decompilers can be
// substituted via the bin argument as long as they print to stdout.
var defaultArgs = []string{"-c", "-p", "-constants"}

// Javap invokes the external decompiler as a subprocess, one class entry
// per invocation. The entry is extracted to a scratch file first; stdout
// is captured verbatim as the source text.
type Javap struct {
	bin     string
	timeout time.Duration
	log     *slog.Logger
}

// NewJavap creates a decompiler gateway running bin with the given
// per-invocation timeout. Zero values fall back to "javap" on PATH and
// DefaultTimeout.
func NewJavap(bin string, timeout time.Duration, log *slog.Logger) *Javap {
	if bin == "" {
		bin = "javap"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Javap{bin: bin, timeout: timeout, log: log.With("component", "decompiler")}
}

// Decompile produces source text for exactly one compiled type. A missing
// or unreadable entry fails with KindArchiveUnreadable before any
// subprocess starts; a non-zero exit or empty stdout fails with
// KindDecompilationFailed carrying the tool's stderr. No retries.
func (j *Javap) Decompile(ctx context.Context, jarPath, entryPath string) (*pipeline.DecompiledUnit, error) {
	data, err := jar.ReadEntry(jarPath, entryPath)
	if err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp("", "jarscope_decompile_")
	if err != nil {
		return nil, pipeline.Errorf(pipeline.KindDecompilationFailed,
			"create scratch dir: %v", err)
	}
	defer os.RemoveAll(scratch)

	classFile := filepath.Join(scratch, path.Base(entryPath))
	if err := os.WriteFile(classFile, data, 0o644); err != nil {
		return nil, pipeline.Errorf(pipeline.KindDecompilationFailed,
			"extract entry: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, j.bin, append(append([]string{}, defaultArgs...), classFile)...)
	// Kill the whole process group on cancellation so a stuck tool cannot
	// hold the output pipes open past the deadline.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	j.log.Debug("decompiling", "jar", jarPath, "entry", entryPath)
	runErr := cmd.Run()

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, pipeline.Errorf(pipeline.KindTimeout,
				"decompilation of %s exceeded %s and was terminated", entryPath, j.timeout)
		}
		if ctx.Err() == context.Canceled {
			return nil, ctx.Err()
		}
		// A bare binary name fails PATH lookup with exec.ErrNotFound; a
		// path-qualified one fails at start with fs.ErrNotExist.
		if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) {
			return nil, pipeline.Errorf(pipeline.KindToolNotFound,
				"decompiler %q not found", j.bin)
		}
		return nil, pipeline.Errorf(pipeline.KindDecompilationFailed,
			"decompiler exited with an error for %s", entryPath).
			WithDiagnostic(strings.TrimSpace(stderr.String()))
	}

	source := stdout.String()
	if strings.TrimSpace(source) == "" {
		return nil, pipeline.Errorf(pipeline.KindDecompilationFailed,
			"decompiler produced no output for %s", entryPath).
			WithDiagnostic(strings.TrimSpace(stderr.String()))
	}

	return &pipeline.DecompiledUnit{
		ClassName:     jar.QualifiedName(entryPath),
		JarPath:       jarPath,
		ClassFilePath: entryPath,
		SourceText:    source,
	}, nil
}
