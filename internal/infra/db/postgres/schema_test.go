//go:build !integration

package postgres

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"

	"trades-marketplace/internal/domain/model"
)

var statusCheck = regexp.MustCompile(`(?s)status\s+TEXT NOT NULL DEFAULT 'pending_quotes' CHECK \(status IN \((.*?)\)\)`)

func TestSchema_JobStatusCheckMatchesModel(t *testing.T) {
	// --- Arrange ---
	root, err := findProjectRoot()
	if err != nil {
		t.Fatalf("project root: %v", err)
	}
	schema, err := os.ReadFile(filepath.Join(root, "deploy", "postgres", "init.sql"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}

	// --- Act ---
	m := statusCheck.FindSubmatch(schema)
	if m == nil {
		t.Fatal("jobs.status CHECK constraint not found")
	}
	var inSchema []string
	for _, q := range regexp.MustCompile(`'([a-z_]+)'`).FindAllSubmatch(m[1], -1) {
		inSchema = append(inSchema, string(q[1]))
	}
	inModel := model.JobStatusStrings(model.JobStatuses())

	// --- Assert ---
	sort.Strings(inSchema)
	sort.Strings(inModel)
	if len(inSchema) != len(inModel) {
		t.Fatalf("schema allows %v, model has %v", inSchema, inModel)
	}
	for i := range inModel {
		if inSchema[i] != inModel[i] {
			t.Fatalf("schema allows %v, model has %v", inSchema, inModel)
		}
		if !model.JobStatus(inModel[i]).Valid() {
			t.Errorf("%s is persisted but not a valid status", inModel[i])
		}
	}
}
