package proxy

import "github.com/jarscope/jarscope/internal/pipeline"

// --- MCP Tool Input/Output Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// AnalyzeInput is the input for the analyze_maven_dependency MCP tool.
type AnalyzeInput struct {
	Dependencies  []pipeline.Coordinate `json:"dependencies" jsonschema:"Maven coordinates to resolve, each with groupId, artifactId and version"`
	TargetClasses []string              `json:"target_classes" jsonschema:"bare class names to locate (simple names, never package-qualified)"`
	Repositories  []pipeline.Repository `json:"repositories,omitempty" jsonschema:"additional Maven repositories for private or snapshot artifacts"`
	WorkDir       string                `json:"work_dir,omitempty" jsonschema:"work directory path; a temp directory is created when omitted"`
}

// AnalyzeOutput is the result of the analyze_maven_dependency MCP tool.
type AnalyzeOutput struct {
	Result *pipeline.AnalysisResult `json:"result"`
}

// DecompileInput is the input for the decompile_class MCP tool.
type DecompileInput struct {
	JarPath       string `json:"jar_path" jsonschema:"absolute path of the jar file on the gateway host"`
	ClassFilePath string `json:"class_file_path" jsonschema:"entry path of the class inside the jar (e.g. com/example/MyClass.class)"`
}

// DecompileOutput is the result of the decompile_class MCP tool.
type DecompileOutput struct {
	Unit *pipeline.DecompiledUnit `json:"unit"`
}

// FindAndDecompileInput is the input for the find_and_decompile MCP tool.
type FindAndDecompileInput struct {
	Dependencies  []pipeline.Coordinate `json:"dependencies" jsonschema:"Maven coordinates to resolve"`
	TargetClasses []string              `json:"target_classes" jsonschema:"bare class names to locate and decompile"`
	Repositories  []pipeline.Repository `json:"repositories,omitempty" jsonschema:"additional Maven repositories"`
	WorkDir       string                `json:"work_dir,omitempty" jsonschema:"work directory path; a temp directory is created when omitted"`
}

// FindAndDecompileOutput is the result of the find_and_decompile MCP tool.
type FindAndDecompileOutput struct {
	Result *pipeline.CombinedResult `json:"result"`
}
