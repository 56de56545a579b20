package log

import (
	"context"
	"testing"
)

type markerLogger struct {
	nopLogger
	name string
}

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	want := markerLogger{name: "req"}
	ctx := WithContext(context.Background(), want)

	got, ok := FromContext(ctx).(markerLogger)
	if !ok || got.name != "req" {
		t.Fatalf("FromContext = %#v, want stored logger", got)
	}
}

func TestFromContext_FallsBackToNop(t *testing.T) {
	tests := map[string]context.Context{
		"empty":      context.Background(),
		"nil logger": WithContext(context.Background(), nil),
		"wrong type": context.WithValue(context.Background(), ctxKey{}, "not a logger"),
	}
	for name, ctx := range tests {
		t.Run(name, func(t *testing.T) {
			if _, ok := FromContext(ctx).(nopLogger); !ok {
				t.Fatal("expected nop fallback")
			}
		})
	}
}

func TestWithContext_ChildOverridesParent(t *testing.T) {
	parent := WithContext(context.Background(), markerLogger{name: "parent"})
	child := WithContext(parent, markerLogger{name: "child"})

	if FromContext(child).(markerLogger).name != "child" {
		t.Fatal("child context should carry the newer logger")
	}
	if FromContext(parent).(markerLogger).name != "parent" {
		t.Fatal("parent context should be unchanged")
	}
}
