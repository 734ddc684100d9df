package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Verify walks an audit log and recomputes the hash chain. It returns the
// number of verified entries, or an error naming the first broken line.
func Verify(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("audit: open log: %w", err)
	}
	defer f.Close()

	prevHash := GenesisHash
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		count++

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return count - 1, fmt.Errorf("audit: line %d: invalid JSON: %w", count, err)
		}
		if entry.PrevHash != prevHash {
			return count - 1, fmt.Errorf("audit: line %d: chain broken: prev_hash %s, expected %s",
				count, entry.PrevHash, prevHash)
		}

		buf := make([]byte, len(line))
		copy(buf, line)
		prevHash = HashLine(buf)
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("audit: scan log: %w", err)
	}

	return count, nil
}
