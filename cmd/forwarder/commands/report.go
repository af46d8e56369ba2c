package commands

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"chat-forwarder/internal/domain"
)

// renderReports печатает итоги проходов таблицей.
func renderReports(w io.Writer, reports []domain.ChatReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Chat", "Found", "New", "Delivered", "Skipped", "Failed", "Saved", "Duration", "Error"})
	for _, r := range reports {
		t.AppendRow(table.Row{r.Chat, r.Found, r.New, r.Delivered, r.Skipped, r.Failed, r.CacheSaved, r.Duration.Round(time.Millisecond), r.Error})
	}
	t.Render()
}
