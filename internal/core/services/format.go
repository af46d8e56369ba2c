package services

import (
	"fmt"
	"html"

	"chat-forwarder/internal/domain"
)

// FormatSystemNotice оформляет служебное сообщение с указанием чата.
func FormatSystemNotice(chatName, text string) string {
	return fmt.Sprintf("<i>(Системное сообщение в '%s')</i>\n%s", html.EscapeString(chatName), html.EscapeString(text))
}

// FormatTextNotice оформляет текстовое сообщение. В групповом чате
// добавляется жирное имя отправителя и курсивом название чата.
func FormatTextNotice(target domain.ChatTarget, sender, text string) string {
	if target.IsGroup && sender != domain.DirectSender {
		return fmt.Sprintf("<b>%s</b> (<i>%s</i>):\n%s", html.EscapeString(sender), html.EscapeString(target.Name), html.EscapeString(text))
	}
	return html.EscapeString(text)
}

// FormatMediaCaption возвращает подпись к скриншоту медиа-сообщения.
func FormatMediaCaption(chatName string) string {
	return fmt.Sprintf("<i>(Новое в чате '%s')</i>", html.EscapeString(chatName))
}
