package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVHasHeaderAndOneRowPerScoredEntity(t *testing.T) {
	h := buildFixtureHierarchy()
	data, err := ExportCSV(h)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3) // header + 2 entities
	assert.Equal(t, []string{"path", "entity_id", "composite", "band", "issue_count", "suggestion_count"}, records[0])

	byID := map[string][]string{}
	for _, r := range records[1:] {
		byID[r[1]] = r
	}
	assert.Equal(t, "critical", byID["main.go:function:Run"][3])
	assert.Equal(t, "1", byID["main.go:function:Run"][4])
	assert.Equal(t, "low", byID["main.go:function:Helper"][3])
}

func TestExportJSONLOneObjectPerLine(t *testing.T) {
	h := buildFixtureHierarchy()
	data, err := ExportJSONL(h)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	for _, line := range lines {
		var row map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &row))
		assert.Contains(t, row, "entity_id")
	}
}

func TestExportSonarQubeOnlyIncludesEntitiesWithIssues(t *testing.T) {
	h := buildFixtureHierarchy()
	data, err := ExportSonarQube(h)
	require.NoError(t, err)

	var report sonarReport
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Issues, 1, "only the critical entity carries an issue")

	issue := report.Issues[0]
	assert.Equal(t, "valknut", issue.EngineID)
	assert.Equal(t, "complexity", issue.RuleID)
	assert.Equal(t, "BLOCKER", issue.Severity) // severity 18 >= 16
	assert.Equal(t, "main.go", issue.PrimaryLocation.FilePath)
}

func TestSonarSeverityMapping(t *testing.T) {
	cases := map[int]string{20: "BLOCKER", 16: "BLOCKER", 15: "CRITICAL", 12: "CRITICAL", 8: "MAJOR", 4: "MINOR", 0: "INFO"}
	for severity, want := range cases {
		assert.Equal(t, want, sonarSeverity(severity))
	}
}
