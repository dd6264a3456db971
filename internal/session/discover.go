package session

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Default file names written by the tracing agent.
const (
	TraceFile        = "eventTrace.json"
	TraceCSVFile     = "eventTrace.csv"
	SourceFormatFile = "source_format.json"
	ObjectsFile      = "objectData.json"
)

// Inputs are the files one trace is loaded from. Only Trace is required.
type Inputs struct {
	Trace        string
	SourceFormat string
	Objects      string
	SourceFile   string
}

var ignored = []string{".git", "build", "out", "target", "node_modules", ".gradle", ".idea"}

// Discover walks dir for the files of a traced run. The Java source is picked
// up only when it is the single .java file of the run.
func Discover(dir string) (Inputs, error) {
	var in Inputs
	var sources []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			for _, ign := range ignored {
				if d.Name() == ign && path != dir {
					return filepath.SkipDir
				}
			}
			return nil
		}

		switch name := d.Name(); {
		case name == TraceFile:
			// the JSON trace wins over a CSV export
			if !strings.HasSuffix(in.Trace, ".json") {
				in.Trace = path
			}
		case name == TraceCSVFile:
			in.Trace = first(in.Trace, path)
		case name == SourceFormatFile:
			in.SourceFormat = first(in.SourceFormat, path)
		case name == ObjectsFile:
			in.Objects = first(in.Objects, path)
		case strings.HasSuffix(name, ".java"):
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if in.Trace == "" {
		return Inputs{}, fmt.Errorf("no %s found under %s", TraceFile, dir)
	}
	if len(sources) == 1 {
		in.SourceFile = sources[0]
	}
	return in, nil
}

func first(current, candidate string) string {
	if current != "" {
		return current
	}
	return candidate
}

// Merge returns in with every non-empty field of explicit taking precedence.
func (in Inputs) Merge(explicit Inputs) Inputs {
	if explicit.Trace != "" {
		in.Trace = explicit.Trace
	}
	if explicit.SourceFormat != "" {
		in.SourceFormat = explicit.SourceFormat
	}
	if explicit.Objects != "" {
		in.Objects = explicit.Objects
	}
	if explicit.SourceFile != "" {
		in.SourceFile = explicit.SourceFile
	}
	return in
}
