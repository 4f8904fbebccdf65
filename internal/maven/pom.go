// Package maven synthesizes ephemeral build descriptors and drives the
// external Maven binary to materialize a dependency closure on disk.
package maven

import (
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/jarscope/jarscope/internal/pipeline"
)

// DescriptorName is the file name of the synthesized build descriptor.
const DescriptorName = "pom.xml"

// pomTemplate declares the requested coordinates as dependencies and the
// requested repositories as resolution sources. The project coordinates are
// throwaway; the descriptor exists only to drive dependency resolution.
var pomTemplate = template.Must(template.New("pom").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0"
         xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
         xsi:schemaLocation="http://maven.apache.org/POM/4.0.0
         http://maven.apache.org/xsd/maven-4.0.0.xsd">
    <modelVersion>4.0.0</modelVersion>

    <groupId>temp.analyzer</groupId>
    <artifactId>dependency-analyzer</artifactId>
    <version>1.0-SNAPSHOT</version>
{{- if .Repositories}}

    <repositories>
{{- range .Repositories}}
        <repository>
            <id>{{.ID}}</id>
            <name>{{.DisplayName}}</name>
            <url>{{.URL}}</url>
            <snapshots>
                <enabled>{{.SnapshotsEnabled}}</enabled>
            </snapshots>
        </repository>
{{- end}}
    </repositories>
{{- end}}

    <dependencies>
{{- range .Dependencies}}
        <dependency>
            <groupId>{{.GroupID}}</groupId>
            <artifactId>{{.ArtifactID}}</artifactId>
            <version>{{.Version}}</version>
        </dependency>
{{- end}}
    </dependencies>
</project>
`))

type pomRepository struct {
	ID               string
	DisplayName      string
	URL              string
	SnapshotsEnabled bool
}

type pomData struct {
	Repositories []pomRepository
	Dependencies []pipeline.Coordinate
}

// WritePOM renders the build descriptor into workDir and returns its path.
// The only side effect is the single file write.
func WritePOM(workDir string, deps []pipeline.Coordinate, repos []pipeline.Repository) (string, error) {
	data := pomData{Dependencies: deps}
	for _, r := range repos {
		name := r.Name
		if strings.TrimSpace(name) == "" {
			name = r.ID
		}
		data.Repositories = append(data.Repositories, pomRepository{
			ID:               r.ID,
			DisplayName:      name,
			URL:              r.URL,
			SnapshotsEnabled: r.AllowsSnapshots(),
		})
	}

	var buf strings.Builder
	if err := pomTemplate.Execute(&buf, data); err != nil {
		return "", pipeline.Errorf(pipeline.KindDescriptorWrite, "render descriptor: %v", err)
	}

	path := filepath.Join(workDir, DescriptorName)
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return "", pipeline.Errorf(pipeline.KindDescriptorWrite,
			"write descriptor to %s: %v", workDir, err)
	}
	return path, nil
}
