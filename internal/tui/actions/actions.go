package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/spacedeck/internal/app"
	"github.com/glabrego/spacedeck/internal/content"
)

type Service interface {
	Aggregate(ctx context.Context, filter content.Filter) []content.DisplayItem
	LoadPapers(ctx context.Context, query string) app.PaperList
	Ask(ctx context.Context, prompt string) (string, error)
	SaveUIPreferences(ctx context.Context, prefs app.UIPreferences) error
}

// AggregateDoneMsg carries the pass sequence number so the model can drop
// results from a pass that was superseded.
type AggregateDoneMsg struct {
	Seq      int
	Filter   content.Filter
	Items    []content.DisplayItem
	Duration time.Duration
}

type PapersLoadedMsg struct {
	Seq      int
	List     app.PaperList
	Duration time.Duration
}

type AssistantReplyMsg struct {
	ID     string
	Answer string
	Err    error
}

type PreferencesSavedMsg struct {
	Err error
}

type ImagePreviewMsg struct {
	URL    string
	Width  int
	Output string
	Err    error
}

type OpenURLSuccessMsg struct {
	Status string
	Opened bool
}

type OpenURLErrorMsg struct {
	Err error
}

func AggregateCmd(service Service, seq int, filter content.Filter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		start := time.Now()

		items := service.Aggregate(ctx, filter)
		return AggregateDoneMsg{Seq: seq, Filter: filter, Items: items, Duration: time.Since(start)}
	}
}

func LoadPapersCmd(service Service, seq int, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		start := time.Now()

		list := service.LoadPapers(ctx, query)
		return PapersLoadedMsg{Seq: seq, List: list, Duration: time.Since(start)}
	}
}

func AskCmd(service Service, id, prompt string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		answer, err := service.Ask(ctx, prompt)
		if err != nil {
			return AssistantReplyMsg{ID: id, Err: err}
		}
		return AssistantReplyMsg{ID: id, Answer: answer}
	}
}

func SavePreferencesCmd(service Service, prefs app.UIPreferences) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return PreferencesSavedMsg{Err: service.SaveUIPreferences(ctx, prefs)}
	}
}

func ImagePreviewCmd(url string, width int, render func(string, int) (string, error)) tea.Cmd {
	return func() tea.Msg {
		if render == nil {
			return ImagePreviewMsg{URL: url, Width: width, Err: fmt.Errorf("image preview unavailable")}
		}
		out, err := render(url, width)
		return ImagePreviewMsg{URL: url, Width: width, Output: out, Err: err}
	}
}

func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Opened original in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Could not open browser, URL copied to clipboard", Opened: false}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not open URL or copy to clipboard")}
	}
}

func CopyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not copy URL to clipboard")}
	}
}
