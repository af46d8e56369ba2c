package htmldom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body><div class="list">
<div class="item" data-index="1"><div class="messageWrapper"><span class="name">Alice</span>
<div class="bubble svelte-1"><span class="name">Alice</span><span class="text">Hi  there</span><div class="meta"><span>12:00</span></div></div></div></div>
<div class="item" data-index="2"><div class="messageWrapper messageWrapper--control"><div class="message">User joined</div></div></div>
<div class="other">ignored</div>
</div></body></html>`

func TestDocumentItems(t *testing.T) {
	doc, err := ParseString(page)
	require.NoError(t, err)

	items := doc.Items("div.item[data-index]")
	require.Len(t, items, 2)

	t.Run("Find находит потомка", func(t *testing.T) {
		el, found, err := items[1].Find("div.messageWrapper--control")
		require.NoError(t, err)
		require.True(t, found)
		text, err := el.InnerText()
		require.NoError(t, err)
		assert.Equal(t, "User joined", text)
	})

	t.Run("Find без совпадений не ошибка", func(t *testing.T) {
		el, found, err := items[0].Find("div.media")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, el)
	})

	t.Run("Селекторы с :not и подстрокой класса", func(t *testing.T) {
		wrapper, found, err := items[0].Find("div.messageWrapper:not(.messageWrapper--control)")
		require.NoError(t, err)
		require.True(t, found)
		bubble, found, err := wrapper.Find(`div[class*="bubble"]`)
		require.NoError(t, err)
		require.True(t, found)

		text, err := bubble.InnerText()
		require.NoError(t, err)
		assert.Equal(t, "AliceHi there\n12:00", text)
	})

	t.Run("Serialize возвращает innerHTML", func(t *testing.T) {
		html, err := items[1].Serialize()
		require.NoError(t, err)
		assert.Equal(t, `<div class="messageWrapper messageWrapper--control"><div class="message">User joined</div></div>`, html)
	})
}

func TestInnerText(t *testing.T) {
	testCases := []struct {
		name string
		html string
		want string
	}{
		{"блоки разделяются строками", `<div><div>Alice</div><div>Hi</div><div>12:00</div></div>`, "Alice\nHi\n12:00"},
		{"br дает перевод строки", `<div>line one<br>line two</div>`, "line one\nline two"},
		{"пробелы схлопываются", `<div>  a   b  </div>`, "a b"},
		{"скрипты пропускаются", `<div>x<script>var y = 1;</script><style>.a{}</style></div>`, "x"},
		{"пустые строки отбрасываются", `<div><div></div><p>text</p><div> </div></div>`, "text"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseString(tc.html)
			require.NoError(t, err)
			items := doc.Items("body > div")
			require.Len(t, items, 1)
			got, err := items[0].InnerText()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
