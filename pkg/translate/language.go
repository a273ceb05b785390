package translate

import (
	"fmt"

	"golang.org/x/text/language"
)

// Auto lets the provider detect the source language
const Auto = "auto"

// Language is a selectable language
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages returns the languages offered in the caption tools
func Languages() []Language {
	return []Language{
		{Code: "en", Name: "英语 (English)"},
		{Code: "zh-CN", Name: "中文 (Chinese)"},
		{Code: "ja", Name: "日语 (Japanese)"},
		{Code: "ko", Name: "韩语 (Korean)"},
		{Code: "fr", Name: "法语 (French)"},
		{Code: "de", Name: "德语 (German)"},
		{Code: "es", Name: "西班牙语 (Spanish)"},
		{Code: "ru", Name: "俄语 (Russian)"},
	}
}

// ValidateLanguages checks that both codes are BCP 47 tags and that they differ,
// unless source is "auto"
func ValidateLanguages(source, target string) error {
	if target == Auto || target == "" {
		return fmt.Errorf("%w: target %q", ErrInvalidLanguage, target)
	}
	tgt, err := language.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, target)
	}
	if source == Auto {
		return nil
	}
	src, err := language.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, source)
	}
	if src == tgt {
		return ErrSameLanguage
	}
	return nil
}

// Base returns the primary language subtag, e.g. "zh" for "zh-CN"
func Base(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, _ := tag.Base()
	return base.String()
}
