package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ParseFile reads every valid entry from a JSONL audit log. A missing
// file yields no entries; malformed lines are skipped.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 2*1024*1024)
	for s.Scan() {
		var entry Entry
		if err := json.Unmarshal(s.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return entries, nil
}

// Summary aggregates an audit log for reporting.
type Summary struct {
	Runs      int            `json:"runs"`
	ByOp      map[string]int `json:"by_operation"`
	ByStyle   map[string]int `json:"by_style"`
	ByType    map[string]int `json:"entities_by_type"`
	ByBackend map[string]int `json:"by_backend"`
}

// Summarize folds entries into per-operation, per-style, per-type, and
// per-backend totals.
func Summarize(entries []Entry) Summary {
	out := Summary{
		Runs:      len(entries),
		ByOp:      make(map[string]int),
		ByStyle:   make(map[string]int),
		ByType:    make(map[string]int),
		ByBackend: make(map[string]int),
	}
	for _, e := range entries {
		out.ByOp[e.Operation]++
		if e.Style != "" {
			out.ByStyle[e.Style]++
		}
		if e.Backend != "" {
			out.ByBackend[e.Backend]++
		}
		for typ, n := range e.EntityCounts {
			out.ByType[typ] += n
		}
	}
	return out
}
