package commands

import (
	"os"
	"testing"
)

// A missing node index must fail before any side effect: no directory
// created, no genesis copied.
func TestRunNodeMissingIndex(t *testing.T) {
	dir := t.TempDir()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.Chdir(wd)

	if err := runNode(nil, nil); err == nil {
		t.Fatal("missing index should be an error")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("missing-argument path must have no side effects, found %v", entries)
	}
}

func TestRunNodeRejectsNonInteger(t *testing.T) {
	if err := runNode(nil, []string{"two"}); err == nil {
		t.Fatal("non-integer index should be an error")
	}
}
