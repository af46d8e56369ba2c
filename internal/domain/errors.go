package domain

import "errors"

var (
	// ErrPassClosed возвращается при обращении к элементу закрытого снимка страницы.
	ErrPassClosed = errors.New("snapshot pass is closed")
	// ErrElementNotFound - нужный подэлемент не найден на странице.
	ErrElementNotFound = errors.New("element not found")
	// ErrUnknownMessageKind - сообщение неизвестного варианта попало в маршрутизатор.
	ErrUnknownMessageKind = errors.New("unknown message kind")
)
