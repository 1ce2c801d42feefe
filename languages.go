package blocktl

import "strings"

// DefaultSourceLang is the declared language of source documents.
const DefaultSourceLang = "ja"

// LanguageNames maps language codes to the names used in provider prompts.
var LanguageNames = map[string]string{
	"en":    "English",
	"zh":    "Chinese (Simplified)",
	"zh-TW": "Chinese (Traditional)",
	"ko":    "Korean",
	"fr":    "French",
	"de":    "German",
	"es":    "Spanish",
	"it":    "Italian",
	"pt":    "Portuguese",
	"ru":    "Russian",
	"ja":    "Japanese",
	"mn":    "Mongolian",
}

// NativeNames maps language codes to their endonyms.
var NativeNames = map[string]string{
	"en":    "English",
	"zh":    "简体中文",
	"zh-TW": "繁體中文",
	"ko":    "한국어",
	"fr":    "Français",
	"de":    "Deutsch",
	"es":    "Español",
	"mn":    "монгол хэл",
	"ja":    "日本語",
}

// GetLanguageName returns the prompt name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	if name, ok := LanguageNames[langCode]; ok {
		return name
	}
	return langCode
}

// TitleSuffix returns the suffix appended to an untranslated title for a
// localized page, e.g. " (English)". Unknown codes yield " (XX)".
func TitleSuffix(langCode string) string {
	if name, ok := NativeNames[langCode]; ok && langCode != "ja" {
		return " (" + name + ")"
	}
	return " (" + strings.ToUpper(langCode) + ")"
}

// NormalizeLanguage converts a language code to the slug used for localized
// pages ("zh" → "zh-cn", "zh-TW" → "zh-tw").
func NormalizeLanguage(langCode string) string {
	switch langCode {
	case "zh":
		return "zh-cn"
	case "zh-TW":
		return "zh-tw"
	}
	return strings.ToLower(langCode)
}

// SupportedLanguage reports whether a prompt name exists for the code.
func SupportedLanguage(langCode string) bool {
	_, ok := LanguageNames[langCode]
	return ok
}
