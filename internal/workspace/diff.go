package workspace

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Equal runs longer than this collapse to a summary marker.
const diffCollapseAfter = 3

// RenderDiff produces a line diff for an edit preview. Changed lines
// carry -/+ markers, short unchanged runs are shown as context, long
// ones collapse to a summary marker.
func RenderDiff(path, before, after string) string {
	if before == after {
		return fmt.Sprintf("--- %s\n(no changes)\n", path)
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	// Line-level reduction so diff ops land on line boundaries.
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var bld strings.Builder
	fmt.Fprintf(&bld, "--- %s\n", path)
	for _, d := range diffs {
		segment := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, line := range segment {
				bld.WriteString("- " + line + "\n")
			}
		case diffmatchpatch.DiffInsert:
			for _, line := range segment {
				bld.WriteString("+ " + line + "\n")
			}
		default:
			if len(segment) > diffCollapseAfter {
				fmt.Fprintf(&bld, "@@ %d unchanged line(s) @@\n", len(segment))
				continue
			}
			for _, line := range segment {
				bld.WriteString("  " + line + "\n")
			}
		}
	}
	return bld.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
