package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/hzgenerator/internal/opencl"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return store, tempDir
}

func createTestRecord(runtimeID string, ts time.Time, ok bool) *Record {
	stages := opencl.Report{Outcomes: []opencl.StageOutcome{
		{Stage: opencl.StagePlatforms},
		{Stage: opencl.StageDevices},
	}}
	if !ok {
		stages.Outcomes = append(stages.Outcomes, opencl.StageOutcome{
			Stage:  opencl.StageBuild,
			Status: opencl.BuildProgramFailure,
			Error:  opencl.BuildProgramFailure.Error(),
		})
	}

	return &Record{
		RuntimeID: runtimeID,
		Settings:  "kernels/OpenCLSettings.json",
		Timestamp: ts,
		Device:    opencl.DeviceInfo{Name: "Test GPU", Type: opencl.DeviceTypeGPU},
		Status:    stages.Status(),
		Kernels:   []string{"generate_points", "hull_reduce"},
		BuildLog:  "warning: implicit conversion",
		Stages:    stages,
	}
}

func TestSaveAndLoad(t *testing.T) {
	store, tempDir := setupTestStore(t)
	record := createTestRecord("rt-1", time.Now().UTC().Truncate(time.Second), true)

	if err := store.Save(record); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "rt-1.json")); err != nil {
		t.Fatalf("report file was not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "rt-1.json.tmp")); !os.IsNotExist(err) {
		t.Fatal("temp file was left behind")
	}

	loaded, err := store.Load("rt-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.Timestamp.Equal(record.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", loaded.Timestamp, record.Timestamp)
	}
	if len(loaded.Kernels) != 2 || loaded.Kernels[1] != "hull_reduce" {
		t.Errorf("Kernels = %v", loaded.Kernels)
	}
	if !loaded.OK() {
		t.Error("expected loaded record to be OK")
	}
}

func TestLoadedFailureStaysFailed(t *testing.T) {
	store, _ := setupTestStore(t)
	if err := store.Save(createTestRecord("rt-bad", time.Now(), false)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load("rt-bad")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.OK() {
		t.Fatal("expected failed record")
	}
	if loaded.Status != opencl.BuildProgramFailure {
		t.Errorf("Status = %v", loaded.Status)
	}
	if !errors.Is(loaded.Stages.Err(), opencl.BuildProgramFailure) {
		t.Errorf("expected build failure in %v", loaded.Stages.Err())
	}
}

func TestSaveValidation(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.Save(nil); err == nil {
		t.Error("expected error for nil record")
	}
	if err := store.Save(&Record{}); err == nil {
		t.Error("expected error for empty runtime ID")
	}
}

func TestLoadNotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Load("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSortedAndSkipsCorrupt(t *testing.T) {
	store, tempDir := setupTestStore(t)
	now := time.Now()

	for _, r := range []*Record{
		createTestRecord("newer", now, false),
		createTestRecord("older", now.Add(-time.Hour), true),
	} {
		if err := store.Save(r); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(tempDir, "corrupt.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	infos, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 infos, got %d", len(infos))
	}
	if infos[0].RuntimeID != "older" || infos[1].RuntimeID != "newer" {
		t.Errorf("unexpected order: %s, %s", infos[0].RuntimeID, infos[1].RuntimeID)
	}
	if !infos[0].OK || infos[1].OK {
		t.Errorf("unexpected OK flags: %v, %v", infos[0].OK, infos[1].OK)
	}
	if infos[0].Kernels != 2 || infos[0].Device != "Test GPU" {
		t.Errorf("unexpected info: %+v", infos[0])
	}
}

func TestListEmpty(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected no infos, got %d", len(infos))
	}
}

func TestDelete(t *testing.T) {
	store, _ := setupTestStore(t)
	if err := store.Save(createTestRecord("rt-del", time.Now(), true)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Delete("rt-del"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load("rt-del"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete("rt-del"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
