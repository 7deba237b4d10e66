package main

import (
	"bytes"
	"testing"
)

func TestParseCounts(t *testing.T) {
	counts, err := parseCounts([]string{"1", "9", "1000"})
	if err != nil {
		t.Fatalf("parseCounts failed: %v", err)
	}
	if len(counts) != 3 || counts[2] != 1000 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	for _, bad := range []string{"0", "-3", "ten"} {
		if _, err := parseCounts([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestPow2Command(t *testing.T) {
	var out bytes.Buffer
	pow2Cmd.SetOut(&out)
	defer pow2Cmd.SetOut(nil)

	if err := runPow2(pow2Cmd, []string{"1", "8", "9", "1000"}); err != nil {
		t.Fatalf("runPow2 failed: %v", err)
	}

	want := "1 -> 8\n8 -> 8\n9 -> 16\n1000 -> 1024\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
