package extract

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Extract(context.Context, []byte) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{Text: f.text, Method: f.name}, nil
}

func TestChainFirstSuccessWins(t *testing.T) {
	first := &fakeProvider{name: "first", text: "Adı Soyadı: AHMET YILMAZ"}
	second := &fakeProvider{name: "second", text: "unreachable"}
	chain := NewChain(nil, first, second)

	out, err := chain.Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Method != "first" {
		t.Errorf("method = %q, want first", out.Method)
	}
	if second.calls != 0 {
		t.Errorf("second provider called %d times, want 0", second.calls)
	}
	if len(out.Names) == 0 {
		t.Error("entities not parsed from winning provider's text")
	}
}

func TestChainFallsThroughOnError(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("binary not found")}
	working := &fakeProvider{name: "working", text: "some text"}
	chain := NewChain(nil, broken, working)

	out, err := chain.Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Method != "working" {
		t.Errorf("method = %q, want working", out.Method)
	}
	if broken.calls != 1 {
		t.Errorf("broken provider calls = %d, want 1", broken.calls)
	}
}

func TestChainEmptyTextIsSuccess(t *testing.T) {
	empty := &fakeProvider{name: "empty", text: ""}
	next := &fakeProvider{name: "next", text: "never"}
	chain := NewChain(nil, empty, next)

	out, err := chain.Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Method != "empty" || next.calls != 0 {
		t.Errorf("empty text should short-circuit, got method %q, next calls %d", out.Method, next.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	a := &fakeProvider{name: "a", err: errors.New("fail a")}
	b := &fakeProvider{name: "b", err: errors.New("fail b")}
	chain := NewChain(nil, a, b)

	if _, err := chain.Extract(context.Background(), nil); err == nil {
		t.Fatal("expected error when every provider fails")
	}
}

func TestNoopTerminatesChain(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("down")}
	chain := NewChain(nil, broken, Noop{})

	out, err := chain.Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Method != "none" || out.Text != "" {
		t.Errorf("noop terminator result = %+v", out)
	}
}
