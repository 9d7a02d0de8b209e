package app

import "testing"

func TestFlipHookEmptyCommand(t *testing.T) {
	if hook := flipHook(""); hook != nil {
		t.Fatal("empty command must disable the hook")
	}
}

func TestFlipHookBlankCommand(t *testing.T) {
	// A whitespace-only command splits to nothing; the hook must treat it
	// like no command instead of running on every flip.
	hook := flipHook("   ")
	if hook == nil {
		t.Fatal("expected a hook")
	}

	hook(true)
	hook(false)
}

func TestFlipHookUnbalancedQuotes(t *testing.T) {
	hook := flipHook(`notify "unterminated`)
	if hook == nil {
		t.Fatal("expected a hook")
	}

	// The parse error is logged, not raised.
	hook(true)
}
