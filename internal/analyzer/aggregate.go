package analyzer

import (
	"github.com/jarscope/jarscope/internal/jar"
	"github.com/jarscope/jarscope/internal/pipeline"
)

// aggregate merges locator output and the artifact inventory into an
// AnalysisResult. Pure combination: no I/O, and input failures are carried
// through verbatim.
func aggregate(req pipeline.ResolutionRequest, jars []string, scan *jar.ScanResult) *pipeline.AnalysisResult {
	missing := scan.Missing
	if missing == nil {
		missing = []string{}
	}
	return &pipeline.AnalysisResult{
		FoundClasses: scan.Found,
		JarFiles:     jars,
		ScanFailures: scan.Failures,
		Summary: pipeline.Summary{
			TotalArtifacts: len(jars),
			FoundCount:     len(scan.Found),
			MissingNames:   missing,
		},
	}
}
