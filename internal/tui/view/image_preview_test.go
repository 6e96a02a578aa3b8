package view

import (
	"reflect"
	"strings"
	"testing"
)

func TestSupportsKittyGraphics(t *testing.T) {
	t.Setenv("KITTY_WINDOW_ID", "")
	t.Setenv("TERM_PROGRAM", "ghostty")
	t.Setenv("TERM", "dumb")
	if !SupportsKittyGraphics() {
		t.Fatal("expected ghostty to support kitty graphics")
	}

	t.Setenv("TERM_PROGRAM", "")
	t.Setenv("TERM", "xterm-256color")
	if SupportsKittyGraphics() {
		t.Fatal("expected plain xterm-256color not to support kitty graphics")
	}
}

func TestInlineImagePreviewEnabled_EnvOff(t *testing.T) {
	t.Setenv("SPACEDECK_INLINE_IMAGE_PREVIEW", "0")
	if InlineImagePreviewEnabled() {
		t.Fatal("expected preview disabled by env")
	}
}

func TestChafaArgs(t *testing.T) {
	t.Setenv("TMUX", "")
	got := chafaArgs(50, false)
	want := []string{"--size", "50x14", "--view-size", "50x14", "--align", "top,center", "--format", "symbols", "-"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected symbol args: %v", got)
	}
	got = chafaArgs(50, true)
	if !strings.Contains(strings.Join(got, " "), "--format kitty --passthrough none") {
		t.Fatalf("unexpected kitty args: %v", got)
	}
}

func TestKittyPassthroughMode(t *testing.T) {
	t.Setenv("TMUX", "")
	if got := KittyPassthroughMode(); got != "none" {
		t.Fatalf("KittyPassthroughMode() = %q, want %q", got, "none")
	}

	t.Setenv("TMUX", "/tmp/tmux-1000/default,1234,0")
	if got := KittyPassthroughMode(); got != "screen" {
		t.Fatalf("KittyPassthroughMode() = %q, want %q", got, "screen")
	}
}

func TestClearKittyGraphicsSequence_TmuxWrapped(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1234,0")
	got := ClearKittyGraphicsSequence()
	if !strings.HasPrefix(got, "\x1bPtmux;\x1b") {
		t.Fatalf("expected tmux passthrough prefix, got %q", got)
	}
	if !strings.Contains(got, "\x1b\x1b_Ga=d,d=A") {
		t.Fatalf("expected escaped kitty delete command in tmux wrapper, got %q", got)
	}
}
