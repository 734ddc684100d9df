package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- chain tests ---

func TestFirstEntryUsesGenesisHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	if err := log.Record(Entry{Event: EventExecuted, Kind: "create_file", Path: "a.go"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries := readEntries(t, path)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].PrevHash != GenesisHash {
		t.Errorf("first prev_hash = %q, want genesis", entries[0].PrevHash)
	}
	if entries[0].Timestamp == "" {
		t.Error("timestamp not stamped")
	}
}

func TestChainLinksConsecutiveEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, ev := range []Event{EventExecuted, EventDenied, EventFailed} {
		if err := log.Record(Entry{Event: ev}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	log.Close()

	lines := readLines(t, path)
	entries := readEntries(t, path)
	for i := 1; i < len(entries); i++ {
		want := HashLine(lines[i-1])
		if entries[i].PrevHash != want {
			t.Errorf("entry %d prev_hash = %q, want %q", i, entries[i].PrevHash, want)
		}
	}
}

func TestReopenContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := log.Record(Entry{Event: EventExecuted}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	log.Close()

	log, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := log.Record(Entry{Event: EventFailed}); err != nil {
		t.Fatalf("Record after reopen: %v", err)
	}
	log.Close()

	if n, err := Verify(path); err != nil {
		t.Fatalf("Verify after reopen: %v", err)
	} else if n != 2 {
		t.Errorf("verified %d entries, want 2", n)
	}
}

// --- verify tests ---

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := log.Record(Entry{Event: EventExecuted, TurnID: "t-abc"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	log.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	tampered := strings.Replace(string(data), `"t-abc"`, `"t-xyz"`, 1)
	if tampered == string(data) {
		t.Fatal("tampering had no effect")
	}
	if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	n, err := Verify(path)
	if err == nil {
		t.Fatal("expected verify error after tampering")
	}
	if n != 1 {
		t.Errorf("verified %d entries before break, want 1", n)
	}
}

func TestVerifyEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	n, err := Verify(path)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if n != 0 {
		t.Errorf("verified %d entries, want 0", n)
	}
}

// --- event tests ---

func TestDetailEventClassification(t *testing.T) {
	detail := []Event{EventDetected, EventConfirmRequested, EventPolicyReloaded}
	outcome := []Event{EventExecuted, EventFailed, EventDenied, EventBlocked}

	for _, ev := range detail {
		if !ev.DetailEvent() {
			t.Errorf("%s should be a detail event", ev)
		}
	}
	for _, ev := range outcome {
		if ev.DetailEvent() {
			t.Errorf("%s should not be a detail event", ev)
		}
	}
}

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var lines [][]byte
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		b := make([]byte, len(scanner.Bytes()))
		copy(b, scanner.Bytes())
		lines = append(lines, b)
	}
	return lines
}

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	var entries []Entry
	for _, line := range readLines(t, path) {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		entries = append(entries, e)
	}
	return entries
}
