// Package jar scans resolved artifacts for compiled-class entries matching
// requested simple names.
package jar

import (
	"archive/zip"
	"context"
	"io"
	"path"
	"strings"

	"github.com/jarscope/jarscope/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

const classSuffix = ".class"

// scanParallelism bounds how many artifacts are opened at once.
const scanParallelism = 8

// ScanResult is the outcome of locating target names across an artifact set.
type ScanResult struct {
	// Found maps each requested name (as requested) to all matches in
	// discovery order: artifact list order, then entry order.
	Found map[string][]pipeline.ClassLocation

	// Missing lists requested names with no match, in request order.
	Missing []string

	// Failures records artifacts that could not be opened. These are
	// partial failures; scanning continued past them.
	Failures []pipeline.ScanFailure
}

// Locate scans every artifact for compiled-class entries whose bare name
// matches a requested target. Matching is case-insensitive on the simple
// name; nested types (Outer$Inner) only match when the full nested name is
// requested. Artifacts are scanned in parallel but results are merged in
// artifact order, so discovery order is deterministic.
func Locate(ctx context.Context, jarPaths []string, targets []string) (*ScanResult, error) {
	// Lowercased simple name -> canonical requested spelling. The first
	// request spelling wins for duplicate names differing only in case.
	canonical := make(map[string]string, len(targets))
	order := make([]string, 0, len(targets))
	for _, t := range targets {
		key := strings.ToLower(t)
		if _, ok := canonical[key]; !ok {
			canonical[key] = t
			order = append(order, t)
		}
	}

	type jarScan struct {
		locations []pipeline.ClassLocation
		failure   *pipeline.ScanFailure
	}
	scans := make([]jarScan, len(jarPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanParallelism)
	for i, jarPath := range jarPaths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			locs, err := scanArchive(jarPath, canonical)
			if err != nil {
				scans[i].failure = &pipeline.ScanFailure{JarPath: jarPath, Message: err.Error()}
				return nil // partial failure; keep scanning the rest
			}
			scans[i].locations = locs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ScanResult{Found: make(map[string][]pipeline.ClassLocation)}
	for _, s := range scans {
		if s.failure != nil {
			result.Failures = append(result.Failures, *s.failure)
			continue
		}
		for _, loc := range s.locations {
			name := canonical[strings.ToLower(SimpleName(loc.FilePath))]
			result.Found[name] = append(result.Found[name], loc)
		}
	}
	for _, t := range order {
		if len(result.Found[t]) == 0 {
			result.Missing = append(result.Missing, t)
		}
	}
	return result, nil
}

// scanArchive enumerates the compiled-class entries of one artifact and
// returns those whose bare name is in the target set, in entry order.
func scanArchive(jarPath string, canonical map[string]string) ([]pipeline.ClassLocation, error) {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var locs []pipeline.ClassLocation
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, classSuffix) {
			continue
		}
		if _, ok := canonical[strings.ToLower(SimpleName(f.Name))]; !ok {
			continue
		}
		locs = append(locs, pipeline.ClassLocation{
			ClassName: QualifiedName(f.Name),
			JarPath:   jarPath,
			FilePath:  f.Name,
		})
	}
	return locs, nil
}

// SimpleName strips an archive entry path down to its bare type name:
// the innermost path segment with the .class extension removed.
// Nested-type separators ($) are kept as part of the name.
func SimpleName(entryPath string) string {
	return strings.TrimSuffix(path.Base(entryPath), classSuffix)
}

// QualifiedName converts an archive entry path to a fully qualified type
// name (com/example/Foo.class -> com.example.Foo).
func QualifiedName(entryPath string) string {
	return strings.ReplaceAll(strings.TrimSuffix(entryPath, classSuffix), "/", ".")
}

// ReadEntry returns the raw bytes of one entry in an artifact. Both an
// unopenable archive and a missing entry yield KindArchiveUnreadable.
func ReadEntry(jarPath, entryPath string) ([]byte, error) {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return nil, pipeline.Errorf(pipeline.KindArchiveUnreadable,
			"open %s: %v", jarPath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != entryPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, pipeline.Errorf(pipeline.KindArchiveUnreadable,
				"open entry %s: %v", entryPath, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, pipeline.Errorf(pipeline.KindArchiveUnreadable,
				"read entry %s: %v", entryPath, err)
		}
		return data, nil
	}
	return nil, pipeline.Errorf(pipeline.KindArchiveUnreadable,
		"entry %s not found in %s", entryPath, jarPath)
}
