package features

import (
	"bufio"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sibyllinesoft/valknut/internal/index"
	"github.com/sibyllinesoft/valknut/internal/types"
)

const coverageExtractorVersion = 1

// CoverageExtractor attributes line-level coverage back to entities by
// range intersection (§4.3). It reads one of lcov, Cobertura XML, or a
// simple `{"file": {"line": hits, ...}}` JSON artifact. With no coverage
// path configured, or the file absent, Run is a silent no-op — coverage is
// the one extractor explicitly allowed to contribute nothing.
type CoverageExtractor struct {
	Path string
}

func NewCoverageExtractor(path string) *CoverageExtractor {
	return &CoverageExtractor{Path: path}
}

func (c *CoverageExtractor) Name() string                    { return "coverage" }
func (c *CoverageExtractor) RequiresProjectGlobalState() bool { return false }

func (c *CoverageExtractor) Run(ix *index.Index, acc *Accumulator) error {
	if c.Path == "" {
		return nil
	}
	hitLines, err := loadCoverage(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if hitLines == nil {
		return nil
	}

	for _, e := range ix.All() {
		if e.Kind == types.KindFile {
			continue
		}
		lines := hitLines[e.Path]
		if len(lines) == 0 {
			continue
		}
		total, covered := 0, 0
		for line := e.Lines.Start; line <= e.Lines.End; line++ {
			total++
			if hits, ok := lines[line]; ok && hits > 0 {
				covered++
			}
		}
		if total == 0 {
			continue
		}
		acc.Set(e.ID, "coverage_ratio", float64(covered)/float64(total), c.Name(), coverageExtractorVersion)
	}
	return nil
}

// lineHits maps file path -> line number -> hit count.
type lineHits map[string]map[int]int

func loadCoverage(path string) (lineHits, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONCoverage(content)
	case ".xml":
		return parseCoberturaCoverage(content)
	default:
		return parseLCOV(content)
	}
}

func parseLCOV(content []byte) (lineHits, error) {
	out := make(lineHits)
	var current string
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "SF:"):
			current = strings.TrimPrefix(line, "SF:")
			if out[current] == nil {
				out[current] = make(map[int]int)
			}
		case strings.HasPrefix(line, "DA:"):
			fields := strings.SplitN(strings.TrimPrefix(line, "DA:"), ",", 2)
			if len(fields) != 2 || current == "" {
				continue
			}
			lineNo, errA := strconv.Atoi(fields[0])
			hits, errB := strconv.Atoi(fields[1])
			if errA == nil && errB == nil {
				out[current][lineNo] = hits
			}
		case line == "end_of_record":
			current = ""
		}
	}
	return out, scanner.Err()
}

type coberturaReport struct {
	Packages struct {
		Package []struct {
			Classes struct {
				Class []struct {
					Filename string `xml:"filename,attr"`
					Lines    struct {
						Line []struct {
							Number int `xml:"number,attr"`
							Hits   int `xml:"hits,attr"`
						} `xml:"line"`
					} `xml:"lines"`
				} `xml:"class"`
			} `xml:"classes"`
		} `xml:"package"`
	} `xml:"packages"`
}

func parseCoberturaCoverage(content []byte) (lineHits, error) {
	var report coberturaReport
	if err := xml.Unmarshal(content, &report); err != nil {
		return nil, err
	}
	out := make(lineHits)
	for _, pkg := range report.Packages.Package {
		for _, cls := range pkg.Classes.Class {
			if out[cls.Filename] == nil {
				out[cls.Filename] = make(map[int]int)
			}
			for _, l := range cls.Lines.Line {
				out[cls.Filename][l.Number] = l.Hits
			}
		}
	}
	return out, nil
}

func parseJSONCoverage(content []byte) (lineHits, error) {
	var raw map[string]map[string]int
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, err
	}
	out := make(lineHits, len(raw))
	for file, lines := range raw {
		m := make(map[int]int, len(lines))
		for lineStr, hits := range lines {
			if lineNo, err := strconv.Atoi(lineStr); err == nil {
				m[lineNo] = hits
			}
		}
		out[file] = m
	}
	return out, nil
}
