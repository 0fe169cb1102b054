package code

import (
	"errors"
)

// lang stores the English and Chinese text of a code
// lang 类型，用来存储英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

// FallbackLang is used when the selected language has no text.
const FallbackLang = "en"

var supportedLanguages = []string{"en", "zh_cn"}

// Default language is English // 默认语言为英文
var lng = FallbackLang

// GetMessage returns the text for the current global language
// GetMessage 根据当前全局语言返回相应的消息
func (l lang) GetMessage() string {
	switch lng {
	case "zh_cn":
		if l.zh_cn != "" {
			return l.zh_cn
		}
	case "en":
		if l.en != "" {
			return l.en
		}
	}
	return l.en
}

// GetSupportedLanguages returns every language a code carries text for
// GetSupportedLanguages 返回支持的所有语言
func GetSupportedLanguages() []string {
	return append([]string{}, supportedLanguages...)
}

// SetGlobalDefaultLang sets the global language. Unknown languages reset it
// to the fallback and return an error.
// SetGlobalDefaultLang 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	for _, l := range supportedLanguages {
		if language == l {
			lng = language
			return nil
		}
	}
	lng = FallbackLang
	return errors.New("unsupported language type, set defaulting to " + FallbackLang)
}

// GetGlobalDefaultLang returns the global language
// GetGlobalDefaultLang 获取全局默认语言
func GetGlobalDefaultLang() string {
	return lng
}
