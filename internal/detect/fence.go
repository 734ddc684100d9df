package detect

import (
	"strings"

	"chatpilot/internal/model"
)

// Fence is one fenced code block found in model text.
type Fence struct {
	Lang string     // language tag after the opening delimiter, may be empty
	Body string     // content between the delimiters, without them
	Span model.Span // byte range covering the whole block including delimiters
}

// ScanFences finds all closed fenced code blocks in text, in order of
// appearance. An opening delimiter may follow prose on the same line
// ("I'll create... ```json"); the language tag is whatever follows it up
// to the end of that line. The closing delimiter must sit on a line of
// its own. An opening delimiter without a matching close is ignored.
func ScanFences(text string) []Fence {
	var fences []Fence

	pos := 0
	for {
		rel := strings.Index(text[pos:], "```")
		if rel < 0 {
			return fences
		}
		start := pos + rel

		lineEnd := strings.IndexByte(text[start:], '\n')
		if lineEnd < 0 {
			// Opener on the last line, no room for a body.
			return fences
		}
		lang := strings.ToLower(strings.TrimSpace(text[start+3 : start+lineEnd]))
		bodyStart := start + lineEnd + 1

		closeStart, end, ok := findClose(text, bodyStart)
		if !ok {
			pos = bodyStart
			continue
		}

		fences = append(fences, Fence{
			Lang: lang,
			Body: strings.TrimSuffix(text[bodyStart:closeStart], "\n"),
			Span: model.Span{Start: start, End: end},
		})
		pos = end
	}
}

// findClose scans line by line from offset for a closing delimiter: a
// line holding only ``` and whitespace. It returns the line's start and
// the offset just past its trailing newline.
func findClose(text string, offset int) (lineStart, end int, ok bool) {
	for offset <= len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		var line string
		var next int
		if lineEnd < 0 {
			line = text[offset:]
			next = len(text)
		} else {
			line = text[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}
		if strings.TrimSpace(line) == "```" {
			return offset, next, true
		}
		if lineEnd < 0 {
			break
		}
		offset = next
	}
	return 0, 0, false
}

// extByLang maps common fence language tags to file extensions for
// implicit snippet suggestions.
var extByLang = map[string]string{
	"javascript": "js",
	"js":         "js",
	"typescript": "ts",
	"ts":         "ts",
	"python":     "py",
	"py":         "py",
	"go":         "go",
	"golang":     "go",
	"rust":       "rs",
	"java":       "java",
	"c":          "c",
	"cpp":        "cpp",
	"c++":        "cpp",
	"sh":         "sh",
	"bash":       "sh",
	"shell":      "sh",
	"html":       "html",
	"css":        "css",
	"sql":        "sql",
	"yaml":       "yaml",
	"yml":        "yaml",
	"json":       "json",
	"ruby":       "rb",
	"rb":         "rb",
}

// SuggestedFilename returns a default snippet filename for a fence
// language tag.
func SuggestedFilename(lang string) string {
	if ext, ok := extByLang[strings.ToLower(lang)]; ok {
		return "snippet." + ext
	}
	return "snippet.txt"
}
