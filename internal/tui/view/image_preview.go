package view

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	inlineImagePreviewRows = 14
	maxImageBytes          = 5 * 1024 * 1024
)

// InlineImagePreviewEnabled reports whether overlays should try to draw card
// images with chafa. SPACEDECK_INLINE_IMAGE_PREVIEW=0 turns it off.
func InlineImagePreviewEnabled() bool {
	if strings.TrimSpace(os.Getenv("SPACEDECK_INLINE_IMAGE_PREVIEW")) == "0" {
		return false
	}
	_, err := exec.LookPath("chafa")
	return err == nil
}

// ImagePreviewer downloads card images and renders them through chafa.
// Results are cached per URL and width for the life of the process.
type ImagePreviewer struct {
	http *http.Client

	mu    sync.Mutex
	cache map[string]string
}

func NewImagePreviewer(httpClient *http.Client) *ImagePreviewer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &ImagePreviewer{http: httpClient, cache: make(map[string]string)}
}

func (p *ImagePreviewer) Render(imageURL string, width int) (string, error) {
	if width < 30 {
		width = 40
	}
	key := fmt.Sprintf("%d|%s", width, imageURL)
	p.mu.Lock()
	cached, ok := p.cache[key]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	chafaPath, err := exec.LookPath("chafa")
	if err != nil {
		return "", fmt.Errorf("chafa is not installed")
	}

	resp, err := p.http.Get(imageURL)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	kitty := SupportsKittyGraphics()
	cmd := exec.Command(chafaPath, chafaArgs(width, kitty)...)
	cmd.Stdin = bytes.NewReader(imageData)
	output, err := cmd.CombinedOutput()
	raw := string(output)
	trimmed := strings.TrimSpace(raw)
	if err != nil {
		return "", fmt.Errorf("render image via chafa: %w: %s", err, trimmed)
	}

	out := trimmed
	if kitty && ContainsKittyGraphicsEscape(raw) {
		out = strings.TrimRight(raw, "\r\n")
	}
	if out == "" {
		return "", fmt.Errorf("empty output")
	}
	p.mu.Lock()
	p.cache[key] = out
	p.mu.Unlock()
	return out, nil
}

func chafaArgs(width int, kitty bool) []string {
	size := fmt.Sprintf("%dx%d", width, inlineImagePreviewRows)
	args := []string{"--size", size, "--view-size", size, "--align", "top,center"}
	if kitty {
		args = append(args, "--format", "kitty", "--passthrough", KittyPassthroughMode(), "--relative", "on")
	} else {
		args = append(args, "--format", "symbols")
	}
	return append(args, "-")
}

func SupportsKittyGraphics() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	termProgram := strings.ToLower(strings.TrimSpace(os.Getenv("TERM_PROGRAM")))
	if strings.Contains(termProgram, "ghostty") || strings.Contains(termProgram, "kitty") {
		return true
	}
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return strings.Contains(term, "xterm-kitty") || strings.Contains(term, "ghostty")
}

func ContainsKittyGraphicsEscape(s string) bool {
	return strings.Contains(s, "\x1b_G")
}

// ClearKittyGraphicsSequence deletes every placed kitty image; overlays emit
// it on dismiss so previews do not linger over the card list.
func ClearKittyGraphicsSequence() string {
	base := "\x1b_Ga=d,d=A\x1b\\"
	if os.Getenv("TMUX") == "" {
		return base
	}
	escaped := strings.ReplaceAll(base, "\x1b", "\x1b\x1b")
	return "\x1bPtmux;\x1b" + escaped + "\x1b\\"
}

func KittyPassthroughMode() string {
	if os.Getenv("TMUX") != "" {
		return "screen"
	}
	return "none"
}
