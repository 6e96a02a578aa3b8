package platform

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// ValidateURL accepts only absolute http(s) links; cards from static entries
// or feeds may carry anything.
func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("item has no original link")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid URL format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid URL host")
	}
	return trimmed, nil
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

func OpenURLInBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("browser launcher %s not found: %w", name, err)
	}
	return exec.Command(name, args...).Start()
}

var writeClipboard = clipboard.WriteAll

func CopyURLToClipboard(url string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard command available")
	}
	if err := writeClipboard(url); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
