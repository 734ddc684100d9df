package pathpolicy

import (
	"errors"
	"testing"

	"chatpilot/internal/model"
)

func TestNormalizeSimplePath(t *testing.T) {
	got, err := Normalize("hello.js", "/workspace")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello.js" {
		t.Errorf("expected hello.js, got %q", got)
	}
}

func TestNormalizeNestedPath(t *testing.T) {
	got, err := Normalize("src/app/main.go", "/workspace")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "src/app/main.go" {
		t.Errorf("expected src/app/main.go, got %q", got)
	}
}

func TestNormalizeCollapsesDotSegments(t *testing.T) {
	got, err := Normalize("src/./app/../lib/util.go", "/workspace")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "src/lib/util.go" {
		t.Errorf("expected src/lib/util.go, got %q", got)
	}
}

func TestNormalizeRejectsTraversal(t *testing.T) {
	roots := []string{"/workspace", "/tmp/ws", "/home/user/project", "relative/root"}
	for _, root := range roots {
		_, err := Normalize("../../etc/passwd", root)
		var unsafe *model.UnsafePathError
		if !errors.As(err, &unsafe) {
			t.Errorf("root %q: expected UnsafePathError, got %v", root, err)
		}
	}
}

func TestNormalizeRejectsAbsolutePath(t *testing.T) {
	_, err := Normalize("/etc/passwd", "/workspace")
	var unsafe *model.UnsafePathError
	if !errors.As(err, &unsafe) {
		t.Errorf("expected UnsafePathError, got %v", err)
	}
}

func TestNormalizeRejectsSneakyTraversal(t *testing.T) {
	cases := []string{
		"..",
		"src/../../outside.txt",
		"a/b/../../../etc/shadow",
		"..\\..\\secret",
	}
	for _, raw := range cases {
		if _, err := Normalize(raw, "/workspace"); err == nil {
			t.Errorf("%q: expected rejection", raw)
		}
	}
}

func TestNormalizeRejectsEmptyAndNul(t *testing.T) {
	for _, raw := range []string{"", "   ", "a\x00b"} {
		if _, err := Normalize(raw, "/workspace"); err == nil {
			t.Errorf("%q: expected rejection", raw)
		}
	}
}

func TestNormalizeBackslashSeparators(t *testing.T) {
	got, err := Normalize("src\\main.js", "/workspace")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "src/main.js" {
		t.Errorf("expected src/main.js, got %q", got)
	}
}

func TestJoinRoundTrip(t *testing.T) {
	norm, err := Normalize("docs/readme.md", "/workspace")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	abs := Join("/workspace", norm)
	if abs != "/workspace/docs/readme.md" {
		t.Errorf("unexpected join result %q", abs)
	}
}
