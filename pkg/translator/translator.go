// Package translator localizes response messages from embedded TOML catalogs.
package translator

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	LanguageEn = "en"
	LanguageFr = "fr"
)

//go:embed locales/*.toml
var locales embed.FS

// Translator looks messages up by their English text.
type Translator struct {
	bundle      *i18n.Bundle
	defaultLang string
	logger      *zap.Logger
}

func New(defaultLang string, logger *zap.Logger) (*Translator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultLang == "" {
		defaultLang = LanguageEn
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(locales, path.Join("locales", entry.Name())); err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
	}

	return &Translator{bundle: bundle, defaultLang: defaultLang, logger: logger}, nil
}

// Localize translates message for the given Accept-Language value. Unknown
// messages are returned unchanged.
func (t *Translator) Localize(acceptLanguage, message string) string {
	if t == nil || message == "" {
		return message
	}
	localizer := i18n.NewLocalizer(t.bundle, acceptLanguage, t.defaultLang)
	out, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: message})
	if err != nil || out == "" {
		return message
	}
	return out
}
