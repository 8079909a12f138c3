package i18n

import (
	"context"
	"embed"

	json "github.com/goccy/go-json"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle        *i18n.Bundle
	tags          []language.Tag
	matcher       language.Matcher
	defaultLocale = "fr"
)

type ctxKey struct{}

// Init loads all locale files and sets the default locale.
func Init(defLocale string) error {
	if defLocale != "" {
		defaultLocale = defLocale
	}

	b := i18n.NewBundle(language.French)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return eris.Wrap(err, "i18n: read locales dir")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return eris.Wrapf(err, "i18n: read %s", e.Name())
		}
		if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
			return eris.Wrapf(err, "i18n: parse %s", e.Name())
		}
	}
	bundle = b
	tags = b.LanguageTags()
	matcher = language.NewMatcher(tags)
	zap.L().Info("i18n loaded", zap.Int("files", len(entries)), zap.String("default", defaultLocale))
	return nil
}

// WithLocale returns a new context carrying the given locale string (e.g. "fr", "en").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext extracts the locale from the context.
// Returns the configured default locale if not set.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return defaultLocale
}

// MatchAcceptLanguage picks the best loaded locale for an Accept-Language
// header, or the default locale.
func MatchAcceptLanguage(header string) string {
	if matcher == nil || header == "" {
		return defaultLocale
	}
	wanted, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(wanted) == 0 {
		return defaultLocale
	}
	_, idx, conf := matcher.Match(wanted...)
	if conf == language.No {
		return defaultLocale
	}
	base, _ := tags[idx].Base()
	return base.String()
}

// T translates a message ID using the locale from the context.
// Optional templateData provides values for template placeholders.
func T(ctx context.Context, messageID string, templateData ...map[string]any) string {
	if bundle == nil {
		return messageID
	}
	l := i18n.NewLocalizer(bundle, LocaleFromContext(ctx), defaultLocale)

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 && templateData[0] != nil {
		cfg.TemplateData = templateData[0]
	}

	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
