package detlite

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadLabels(t *testing.T) {

	file := filepath.Join(t.TempDir(), "labels.txt")

	if err := os.WriteFile(file, []byte("person\n  bicycle \n\ncar\n"), 0o644); err != nil {
		t.Fatalf("error writing labels: %v", err)
	}

	labels, err := LoadLabels(file)

	if err != nil {
		t.Fatalf("LoadLabels failed: %v", err)
	}

	expected := []string{"person", "bicycle", "car"}

	if !reflect.DeepEqual(labels, expected) {
		t.Errorf("expected %v, got %v", expected, labels)
	}

	if _, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestLabel(t *testing.T) {

	if got := Label(VOCLabels, 14); got != "person" {
		t.Errorf("expected person, got %s", got)
	}

	if got := Label(VOCLabels, 20); got != "class 20" {
		t.Errorf("expected fallback, got %s", got)
	}
}
