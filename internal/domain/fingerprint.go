package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint - шестнадцатеричный SHA-256 сериализованного содержимого элемента.
// Единственный признак того, что сообщение уже было доставлено.
type Fingerprint string

// NewFingerprint вычисляет отпечаток по сериализованному содержимому.
func NewFingerprint(content string) Fingerprint {
	sum := sha256.Sum256([]byte(content))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Valid сообщает, похожа ли строка на отпечаток (64 hex-символа).
func (f Fingerprint) Valid() bool {
	if len(f) != sha256.Size*2 {
		return false
	}
	for _, c := range f {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// FingerprintSet - множество отпечатков с сохранением порядка добавления.
// Нулевое значение готово к использованию.
type FingerprintSet struct {
	order []Fingerprint
	index map[Fingerprint]struct{}
}

// NewFingerprintSet создает множество из перечисленных отпечатков.
func NewFingerprintSet(fps ...Fingerprint) *FingerprintSet {
	s := &FingerprintSet{}
	for _, fp := range fps {
		s.Add(fp)
	}
	return s
}

// Add добавляет отпечаток. Возвращает false, если он уже был в множестве.
func (s *FingerprintSet) Add(fp Fingerprint) bool {
	if s.index == nil {
		s.index = make(map[Fingerprint]struct{})
	}
	if _, ok := s.index[fp]; ok {
		return false
	}
	s.index[fp] = struct{}{}
	s.order = append(s.order, fp)
	return true
}

// Has проверяет наличие отпечатка. Безопасен для nil.
func (s *FingerprintSet) Has(fp Fingerprint) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[fp]
	return ok
}

// Len возвращает количество отпечатков.
func (s *FingerprintSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// List возвращает копию отпечатков в порядке добавления.
func (s *FingerprintSet) List() []Fingerprint {
	if s == nil {
		return nil
	}
	out := make([]Fingerprint, len(s.order))
	copy(out, s.order)
	return out
}

// Equal сравнивает множества без учета порядка.
func (s *FingerprintSet) Equal(other *FingerprintSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, fp := range s.List() {
		if !other.Has(fp) {
			return false
		}
	}
	return true
}
