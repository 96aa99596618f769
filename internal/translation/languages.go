// Package translation produces and stores per-language lecture metadata.
// Korean is the source language; the other supported languages are filled by
// machine translation at upload time, falling back to the source text when a
// translation fails.
package translation

import (
	"strings"
	"time"
)

const (
	// DefaultLanguage is the source language of uploaded metadata.
	DefaultLanguage = "ko"
	// DefaultPace is the delay between consecutive translation calls.
	DefaultPace = 200 * time.Millisecond
)

// Language is a supported display language.
type Language struct {
	Code string // request/storage code, e.g. "zh-cn"
	Name string // native display name
}

// Supported lists the display languages in presentation order. Korean first.
var Supported = []Language{
	{Code: "ko", Name: "한국어"},
	{Code: "en", Name: "English"},
	{Code: "zh-cn", Name: "中文"},
	{Code: "vi", Name: "Tiếng Việt"},
	{Code: "th", Name: "ไทย"},
	{Code: "uz", Name: "O'zbek"},
	{Code: "ja", Name: "日本語"},
}

var names = func() map[string]string {
	m := make(map[string]string, len(Supported))
	for _, l := range Supported {
		m[l.Code] = l.Name
	}
	return m
}()

// IsSupported reports whether code is a supported language code.
func IsSupported(code string) bool {
	_, ok := names[code]
	return ok
}

// Normalize lowercases a requested language code and falls back to the
// default for unsupported values.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if !IsSupported(code) {
		return DefaultLanguage
	}
	return code
}

// NameOf returns the native display name for a supported code, or the code
// itself when unknown.
func NameOf(code string) string {
	if name, ok := names[code]; ok {
		return name
	}
	return code
}
