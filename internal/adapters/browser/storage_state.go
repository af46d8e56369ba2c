package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-rod/rod/lib/proto"
	"github.com/tidwall/gjson"
)

// Cookie - cookie в формате storageState.json.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// StorageItem - одна запись localStorage.
type StorageItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OriginState - localStorage одного origin.
type OriginState struct {
	Origin       string        `json:"origin"`
	LocalStorage []StorageItem `json:"localStorage"`
}

// StorageState - сохраненная авторизация веб-клиента: cookies и localStorage.
// Формат совместим с файлами, которые сохраняет Playwright.
type StorageState struct {
	Cookies []Cookie      `json:"cookies"`
	Origins []OriginState `json:"origins"`
}

// LoadStorageState читает состояние из файла.
func LoadStorageState(path string) (*StorageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage state %s: %w", path, err)
	}
	return ParseStorageState(data)
}

// ParseStorageState разбирает storageState.json. Неизвестные поля игнорируются.
func ParseStorageState(data []byte) (*StorageState, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("storage state is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	state := &StorageState{}

	root.Get("cookies").ForEach(func(_, c gjson.Result) bool {
		if c.Get("name").String() == "" {
			return true
		}
		state.Cookies = append(state.Cookies, Cookie{
			Name:     c.Get("name").String(),
			Value:    c.Get("value").String(),
			Domain:   c.Get("domain").String(),
			Path:     c.Get("path").String(),
			Expires:  c.Get("expires").Float(),
			HTTPOnly: c.Get("httpOnly").Bool(),
			Secure:   c.Get("secure").Bool(),
			SameSite: c.Get("sameSite").String(),
		})
		return true
	})

	root.Get("origins").ForEach(func(_, o gjson.Result) bool {
		origin := OriginState{Origin: o.Get("origin").String()}
		if origin.Origin == "" {
			return true
		}
		o.Get("localStorage").ForEach(func(_, item gjson.Result) bool {
			origin.LocalStorage = append(origin.LocalStorage, StorageItem{
				Name:  item.Get("name").String(),
				Value: item.Get("value").String(),
			})
			return true
		})
		state.Origins = append(state.Origins, origin)
		return true
	})

	return state, nil
}

// Save записывает состояние в файл с правами 0600: там живет сессия пользователя.
func (s *StorageState) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage state: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write storage state %s: %w", path, err)
	}
	return nil
}

// CookieParams переводит cookies в параметры CDP для Page.SetCookies.
func (s *StorageState) CookieParams() []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: proto.NetworkCookieSameSite(c.SameSite),
		}
		// -1 означает сессионную cookie
		if c.Expires > 0 {
			p.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		params = append(params, p)
	}
	return params
}

// LocalStorageScript возвращает скрипт для EvalOnNewDocument, который
// заполняет localStorage своего origin до загрузки скриптов страницы.
// Пустая строка, если восстанавливать нечего.
func (s *StorageState) LocalStorageScript() (string, error) {
	byOrigin := make(map[string]map[string]string)
	for _, o := range s.Origins {
		if len(o.LocalStorage) == 0 {
			continue
		}
		items := make(map[string]string, len(o.LocalStorage))
		for _, item := range o.LocalStorage {
			items[item.Name] = item.Value
		}
		byOrigin[o.Origin] = items
	}
	if len(byOrigin) == 0 {
		return "", nil
	}

	data, err := json.Marshal(byOrigin)
	if err != nil {
		return "", fmt.Errorf("failed to encode local storage: %w", err)
	}
	return fmt.Sprintf(`(() => {
	const state = %s;
	const items = state[window.location.origin];
	if (!items) return;
	try {
		for (const [k, v] of Object.entries(items)) window.localStorage.setItem(k, v);
	} catch (e) {}
})();`, data), nil
}

func cookiesFromCDP(cookies []*proto.NetworkCookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out
}

func localStorageFromJSON(origin, raw string) OriginState {
	state := OriginState{Origin: origin}
	gjson.Parse(raw).ForEach(func(k, v gjson.Result) bool {
		state.LocalStorage = append(state.LocalStorage, StorageItem{Name: k.String(), Value: v.String()})
		return true
	})
	return state
}
