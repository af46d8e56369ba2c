package log

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Preview сворачивает текст в одну строку и обрезает по ширине отображения,
// чтобы превью сообщений не раздували строки лога.
func Preview(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	return runewidth.Truncate(text, width, "…")
}
