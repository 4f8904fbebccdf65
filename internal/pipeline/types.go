package pipeline

import (
	"fmt"
	"strings"
)

// --- Coordinates & Repositories ---

// Coordinate identifies one published Maven library.
type Coordinate struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version"`
}

// Validate checks that all three coordinate parts are present.
func (c Coordinate) Validate() error {
	if strings.TrimSpace(c.GroupID) == "" {
		return NewError(KindValidation, "coordinate groupId is required")
	}
	if strings.TrimSpace(c.ArtifactID) == "" {
		return NewError(KindValidation, fmt.Sprintf("coordinate %s: artifactId is required", c.GroupID))
	}
	if strings.TrimSpace(c.Version) == "" {
		return NewError(KindValidation, fmt.Sprintf("coordinate %s:%s: version is required", c.GroupID, c.ArtifactID))
	}
	return nil
}

// IsSnapshot reports whether the version denotes a mutable snapshot.
func (c Coordinate) IsSnapshot() bool {
	return strings.HasSuffix(strings.ToUpper(c.Version), "-SNAPSHOT")
}

// String returns the canonical group:artifact:version form.
func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

// Repository describes a Maven resolution source. Snapshots mirrors the
// pom.xml <enabled> flag and is carried as a string ("true"/"false"); an
// empty value means enabled.
type Repository struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	URL       string `json:"url"`
	Snapshots string `json:"snapshots,omitempty"`
}

// AllowsSnapshots reports whether snapshot versions resolve from this repository.
func (r Repository) AllowsSnapshots() bool {
	return !strings.EqualFold(strings.TrimSpace(r.Snapshots), "false")
}

// --- Requests ---

// ResolutionRequest asks for a set of coordinates to be resolved and their
// artifacts scanned for the given bare class names.
type ResolutionRequest struct {
	Dependencies  []Coordinate `json:"dependencies"`
	TargetClasses []string     `json:"target_classes"`
	Repositories  []Repository `json:"repositories,omitempty"`
	WorkDir       string       `json:"work_dir,omitempty"`
}

// Validate rejects malformed requests before any external tool runs.
// Target class names must be bare identifiers, never package-qualified.
func (r ResolutionRequest) Validate() error {
	if len(r.Dependencies) == 0 {
		return NewError(KindValidation, "at least one dependency is required")
	}
	for _, dep := range r.Dependencies {
		if err := dep.Validate(); err != nil {
			return err
		}
	}
	if len(r.TargetClasses) == 0 {
		return NewError(KindValidation, "at least one target class name is required")
	}
	// Duplicates are rejected rather than deduplicated so the summary
	// counts always add up to the number of requested names. Matching is
	// case-insensitive, so two spellings of one name count as duplicates.
	seenTargets := make(map[string]bool, len(r.TargetClasses))
	for _, name := range r.TargetClasses {
		if strings.TrimSpace(name) == "" {
			return NewError(KindValidation, "target class names must not be empty")
		}
		if strings.ContainsAny(name, "./\\") {
			return NewError(KindValidation,
				fmt.Sprintf("target class %q must be a simple name, not package-qualified", name))
		}
		key := strings.ToLower(name)
		if seenTargets[key] {
			return NewError(KindValidation, fmt.Sprintf("duplicate target class %q", name))
		}
		seenTargets[key] = true
	}
	seen := make(map[string]bool, len(r.Repositories))
	for _, repo := range r.Repositories {
		if strings.TrimSpace(repo.ID) == "" {
			return NewError(KindValidation, "repository id is required")
		}
		if seen[repo.ID] {
			return NewError(KindValidation, fmt.Sprintf("duplicate repository id %q", repo.ID))
		}
		seen[repo.ID] = true
		if strings.TrimSpace(repo.URL) == "" {
			return NewError(KindValidation, fmt.Sprintf("repository %q: url is required", repo.ID))
		}
	}
	return nil
}

// HasSnapshots reports whether any coordinate is a snapshot version or any
// repository serves snapshots. Such requests may resolve to different
// artifact content over time.
func (r ResolutionRequest) HasSnapshots() bool {
	for _, dep := range r.Dependencies {
		if dep.IsSnapshot() {
			return true
		}
	}
	for _, repo := range r.Repositories {
		if repo.AllowsSnapshots() {
			return true
		}
	}
	return false
}

// DecompileRequest identifies one class entry inside one artifact.
type DecompileRequest struct {
	JarPath       string `json:"jar_path"`
	ClassFilePath string `json:"class_file_path"`
}

// Validate checks that both fields are present.
func (r DecompileRequest) Validate() error {
	if strings.TrimSpace(r.JarPath) == "" {
		return NewError(KindValidation, "jar_path is required")
	}
	if strings.TrimSpace(r.ClassFilePath) == "" {
		return NewError(KindValidation, "class_file_path is required")
	}
	return nil
}

// --- Results ---

// ClassLocation is one compiled-class entry matched inside a resolved artifact.
type ClassLocation struct {
	// ClassName is the fully qualified type name (dots, no .class suffix).
	ClassName string `json:"class_name"`
	// JarPath is the absolute path of the artifact containing the entry.
	JarPath string `json:"jar_path"`
	// FilePath is the archive-relative entry path (e.g. com/example/Foo.class).
	FilePath string `json:"file_path"`
}

// ScanFailure records one artifact that could not be opened during location.
// Scanning continues past these; they never abort the request.
type ScanFailure struct {
	JarPath string `json:"jar_path"`
	Message string `json:"message"`
}

// DecompiledUnit is the outcome of decompiling one class entry. Exactly one
// of SourceText or Failure is populated.
type DecompiledUnit struct {
	ClassName     string `json:"class_name"`
	JarPath       string `json:"jar_path"`
	ClassFilePath string `json:"class_file_path"`
	SourceText    string `json:"decompiled_code,omitempty"`
	Failure       *Error `json:"failure,omitempty"`
}

// Summary carries the aggregate counts for one analysis.
// FoundCount + len(MissingNames) always equals the number of requested names.
type Summary struct {
	TotalArtifacts int      `json:"total_artifacts"`
	FoundCount     int      `json:"found_count"`
	MissingNames   []string `json:"missing_names"`
}

// AnalysisResult is the aggregated outcome of resolve + locate.
type AnalysisResult struct {
	// FoundClasses maps each requested simple name (as requested) to every
	// matching location, in discovery order. Ambiguous matches are preserved.
	FoundClasses map[string][]ClassLocation `json:"found_classes"`
	JarFiles     []string                   `json:"jar_files"`
	WorkDir      string                     `json:"work_dir"`
	// TempDir is true when the work directory was generated for this request.
	TempDir      bool          `json:"temp_dir"`
	ScanFailures []ScanFailure `json:"scan_failures,omitempty"`
	Summary      Summary       `json:"summary"`
}

// CombinedResult is an AnalysisResult plus decompiled source for every
// located class. Names with no locations have no entry.
type CombinedResult struct {
	AnalysisResult
	DecompiledClasses map[string][]DecompiledUnit `json:"decompiled_classes"`
}
