package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sibyllinesoft/valknut/internal/types"
)

// The CSV/JSONL/SonarQube exports below are read-only projections of the
// same UnifiedHierarchy the unified JSON carries (§6's export invariant):
// every field they emit also appears, under the same name where
// reasonable, in the unified document. No stdlib substitute exists in the
// example corpus for a SonarQube generic-issue-import writer, so that
// shape is hand-built from the format's public JSON schema rather than
// grounded on a library.

// entityRow flattens one entity-kind hierarchy node for the row-oriented
// exports (CSV/JSONL), alongside the file path it was found under.
type entityRow struct {
	Path        string             `json:"path"`
	EntityID    types.EntityID     `json:"entity_id"`
	Composite   float64            `json:"composite"`
	Band        types.PriorityBand `json:"band"`
	IssueCount  int                `json:"issue_count"`
	Suggestions int                `json:"suggestion_count"`
}

func collectRows(n *types.HierarchyNode, currentPath string) []entityRow {
	var rows []entityRow
	path := currentPath
	if n.Kind == types.NodeFile {
		path = n.Path
	}
	if n.Kind == types.NodeEntity && n.Priority != nil {
		rows = append(rows, entityRow{
			Path:        path,
			EntityID:    n.Priority.EntityID,
			Composite:   n.Priority.Composite,
			Band:        n.Priority.Band,
			IssueCount:  len(n.Priority.Issues),
			Suggestions: len(n.Priority.Suggestions),
		})
	}
	for _, child := range n.Children {
		rows = append(rows, collectRows(child, path)...)
	}
	return rows
}

// ExportCSV writes one row per scored entity: path, entity ID, composite
// score, priority band, issue count, suggestion count.
func ExportCSV(h *types.UnifiedHierarchy) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"path", "entity_id", "composite", "band", "issue_count", "suggestion_count"}); err != nil {
		return nil, err
	}
	for _, row := range collectRows(h.Root, "") {
		record := []string{
			row.Path,
			string(row.EntityID),
			strconv.FormatFloat(row.Composite, 'f', 6, 64),
			string(row.Band),
			strconv.Itoa(row.IssueCount),
			strconv.Itoa(row.Suggestions),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportJSONL writes one JSON object per scored entity, newline
// delimited — the streaming-friendly sibling of the unified document.
func ExportJSONL(h *types.UnifiedHierarchy) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range collectRows(h.Root, "") {
		if err := enc.Encode(row); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// sonarIssue and sonarReport model SonarQube's generic issue import
// format (one JSON document listing externally-computed issues).
type sonarLocation struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
}

type sonarIssue struct {
	EngineID        string        `json:"engineId"`
	RuleID          string        `json:"ruleId"`
	Severity        string        `json:"severity"`
	Type            string        `json:"type"`
	PrimaryLocation sonarLocation `json:"primaryLocation"`
}

type sonarReport struct {
	Issues []sonarIssue `json:"issues"`
}

// ExportSonarQube projects every Issue attached to a scored entity into
// SonarQube's generic issue import format so findings surface in a
// SonarQube quality gate without a bespoke plugin.
func ExportSonarQube(h *types.UnifiedHierarchy) ([]byte, error) {
	report := sonarReport{}
	for _, row := range collectRows(h.Root, "") {
		node := findEntityNode(h.Root, row.EntityID)
		if node == nil || node.Priority == nil {
			continue
		}
		for _, issue := range node.Priority.Issues {
			report.Issues = append(report.Issues, sonarIssue{
				EngineID: "valknut",
				RuleID:   issue.Category,
				Severity: sonarSeverity(issue.Severity),
				Type:     "CODE_SMELL",
				PrimaryLocation: sonarLocation{
					Message:  fmt.Sprintf("%s: %s", issue.Category, issue.Evidence),
					FilePath: row.Path,
				},
			})
		}
	}
	return json.MarshalIndent(report, "", "  ")
}

func findEntityNode(n *types.HierarchyNode, id types.EntityID) *types.HierarchyNode {
	if n.Kind == types.NodeEntity && n.EntityID == id {
		return n
	}
	for _, child := range n.Children {
		if found := findEntityNode(child, id); found != nil {
			return found
		}
	}
	return nil
}

// sonarSeverity maps valknut's 0-20 severity scale onto SonarQube's
// five-level enum.
func sonarSeverity(severity int) string {
	switch {
	case severity >= 16:
		return "BLOCKER"
	case severity >= 12:
		return "CRITICAL"
	case severity >= 8:
		return "MAJOR"
	case severity >= 4:
		return "MINOR"
	default:
		return "INFO"
	}
}
