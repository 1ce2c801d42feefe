package blocktl

import "testing"

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "English"},
		{"zh-TW", "Chinese (Traditional)"},
		{"ja", "Japanese"},
		{"xx", "xx"},
	}

	for _, tt := range tests {
		if got := GetLanguageName(tt.code); got != tt.want {
			t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestTitleSuffix(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", " (English)"},
		{"zh", " (简体中文)"},
		{"zh-TW", " (繁體中文)"},
		{"mn", " (монгол хэл)"},
		{"it", " (IT)"},
		{"ja", " (JA)"},
	}

	for _, tt := range tests {
		if got := TitleSuffix(tt.code); got != tt.want {
			t.Errorf("TitleSuffix(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"zh", "zh-cn"},
		{"zh-TW", "zh-tw"},
		{"en", "en"},
		{"KO", "ko"},
	}

	for _, tt := range tests {
		if got := NormalizeLanguage(tt.code); got != tt.want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestSupportedLanguage(t *testing.T) {
	if !SupportedLanguage("ko") {
		t.Error("ko should be supported")
	}
	if SupportedLanguage("tlh") {
		t.Error("tlh should not be supported")
	}
}
