package log

import (
	"errors"
	"fmt"
	"testing"

	"github.com/keithlinneman/linnemanlabs-gate/internal/xerrors"
)

func TestErrorChain(t *testing.T) {
	root := errors.New("root")
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"nil", nil, nil},
		{"single", root, []string{"root"}},
		{"wrapped", fmt.Errorf("mid: %w", root), []string{"mid: root", "root"}},
		// WithStack keeps the message, so the duplicate is collapsed
		{"dedup", xerrors.WithStack(root), []string{"root"}},
		{"joined", errors.Join(errors.New("a"), errors.New("b")), []string{"a\nb", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorChain(tt.err)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("errorChain = %q, want %q", got, tt.want)
			}
		})
	}
}

type thresholdError struct{}

func (*thresholdError) Error() string { return "threshold must be positive" }

func TestClassifyTypes(t *testing.T) {
	if s, r := classifyTypes(nil); s != "" || r != "" {
		t.Fatalf("nil = (%q, %q)", s, r)
	}

	err := xerrors.Wrap(fmt.Errorf("cfg: %w", &thresholdError{}), "validate")
	surface, root := classifyTypes(err)
	if surface != "*log.thresholdError" {
		t.Fatalf("surface = %q, want wrappers skipped", surface)
	}
	if root != "*log.thresholdError" {
		t.Fatalf("root = %q", root)
	}

	// only wrappers all the way down except a plain root
	surface, root = classifyTypes(xerrors.New("x"))
	if surface != "*errors.errorString" || root != "*errors.errorString" {
		t.Fatalf("got (%q, %q)", surface, root)
	}
}

func TestChainLinks(t *testing.T) {
	if got := chainLinks(nil, 8); len(got) != 0 {
		t.Fatalf("nil err = %v", got)
	}

	err := xerrors.Wrap(xerrors.Wrap(errors.New("root"), "inner"), "outer")

	all := chainLinks(err, 0)
	// outer, inner have positions; the plain root has none and is dropped
	if len(all) != 2 {
		t.Fatalf("links = %d, want 2: %v", len(all), all)
	}
	for _, l := range all {
		if l["line"] == nil || l["func"] == nil {
			t.Fatalf("link missing position: %v", l)
		}
	}

	if got := chainLinks(err, 1); len(got) != 1 {
		t.Fatalf("max=1 gave %d links", len(got))
	}

	// the top link is always kept even without a position
	plain := chainLinks(errors.New("plain"), 8)
	if len(plain) != 1 || plain[0]["msg"] != "plain" {
		t.Fatalf("plain = %v", plain)
	}
}

func TestFrameHelpers_Empty(t *testing.T) {
	if fr := frameAt(0); fr.Function != "" {
		t.Fatalf("frameAt(0) = %v", fr)
	}
	if fr := firstExternalFrame(nil); fr.Function != "" {
		t.Fatalf("firstExternalFrame(nil) = %v", fr)
	}
}
