package main

import (
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"markets-lab/internal/router"
	"markets-lab/internal/ui"
)

var tuiServerURL string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the Recommended rows in the terminal",
	Long: `Opens the markets pages in the terminal.

Keys:
  up/down    move between rows
  left/right move between cards
  enter      open the focused asset
  c          pick the row's chain (type to search)
  tab        switch tabs
  esc        go back
  r          refresh
  q          quit`,
	RunE: runTUI,
}

// wsURL turns an http(s) base URL into the server's websocket endpoint.
func wsURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	history := router.NewHistory(ui.RecommendedPath)

	a, err := newApp(ctx, history)
	if err != nil {
		return err
	}
	defer a.Close()

	a.page.Mount(ctx)
	defer a.page.Unmount()

	var sub *ui.Subscriber
	if tuiServerURL != "" {
		endpoint, err := wsURL(tuiServerURL)
		if err != nil {
			return err
		}
		cfg := ui.DefaultSubscriberConfig()
		cfg.Logger = logger
		sub = ui.NewSubscriber(endpoint, &cfg)
		defer sub.Close()
	}

	model := ui.NewMarketsModel(ctx, ui.ModelOptions{
		Page:       a.page,
		Store:      a.store,
		History:    history,
		Subscriber: sub,
		Logger:     logger,
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
