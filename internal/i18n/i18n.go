package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed all:locales
var localeFS embed.FS

// Manager holds the i18n bundle and a localizer per loaded language.
type Manager struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	Logger          *zap.Logger
	localizers      map[string]*i18n.Localizer
	availableLangs  map[string]string
}

// NewManager loads all embedded locale files and prepares localizers.
// defaultLang is the language code used when a user has no preference.
func NewManager(defaultLang string, logger *zap.Logger) (*Manager, error) {
	defaultLanguageTag, err := language.Parse(defaultLang)
	if err != nil {
		logger.Error("Failed to parse default language tag", zap.String("tag", defaultLang), zap.Error(err))
		return nil, fmt.Errorf("invalid default language tag '%s': %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(defaultLanguageTag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	m := &Manager{
		bundle:          bundle,
		defaultLanguage: defaultLanguageTag,
		Logger:          logger.Named("i18n"),
		localizers:      make(map[string]*i18n.Localizer),
		availableLangs:  make(map[string]string),
	}

	if err := m.loadTranslations(); err != nil {
		return nil, err
	}

	for langCode := range m.availableLangs {
		m.localizers[langCode] = i18n.NewLocalizer(m.bundle, langCode)
	}
	if _, ok := m.localizers[defaultLang]; !ok {
		m.localizers[defaultLang] = i18n.NewLocalizer(m.bundle, defaultLang)
		if _, exists := m.availableLangs[defaultLang]; !exists {
			base, _ := defaultLanguageTag.Base()
			m.availableLangs[defaultLang] = base.String()
			m.Logger.Warn("Default language was not found in locale files, added manually.", zap.String("lang", defaultLang))
		}
	}

	m.Logger.Info("i18n Manager initialized",
		zap.String("default_language", defaultLang),
		zap.Int("loaded_languages", len(m.availableLangs)),
	)
	return m, nil
}

func (m *Manager) loadTranslations() error {
	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		m.Logger.Error("Failed to read embedded locales directory", zap.Error(err))
		return fmt.Errorf("failed to read embedded locales directory: %w", err)
	}

	loadedCount := 0
	m.availableLangs = make(map[string]string)
	for _, file := range files {
		fileName := file.Name()
		if file.IsDir() || filepath.Ext(fileName) != ".toml" {
			continue
		}
		if _, err := m.bundle.LoadMessageFileFS(localeFS, "locales/"+fileName); err != nil {
			m.Logger.Warn("Failed to load translation file", zap.String("file", fileName), zap.Error(err))
			continue
		}
		loadedCount++

		// Filenames look like active.en.toml; the last dot-part before the
		// extension is the language code.
		baseName := strings.TrimSuffix(fileName, ".toml")
		parts := strings.Split(baseName, ".")
		langCode := parts[len(parts)-1]

		langDisplayName := langCode
		if tag, parseErr := language.Parse(langCode); parseErr == nil {
			base, _ := tag.Base()
			langDisplayName = base.String()
		}
		m.availableLangs[langCode] = langDisplayName
		m.Logger.Debug("Registered available language", zap.String("code", langCode))
	}

	if loadedCount == 0 {
		return errors.New("no valid translation files loaded")
	}

	m.Logger.Info("Finished loading translations", zap.Int("loaded_count", loadedCount))
	return nil
}

// T translates the message identified by key. args may contain an int
// (plural count), key/value pairs, or a prebuilt template-data map.
func (m *Manager) T(lang *string, key string, args ...interface{}) string {
	langCode := m.defaultLanguage.String()
	if lang != nil && *lang != "" {
		langCode = *lang
	}

	localizer, ok := m.localizers[langCode]
	if !ok {
		localizer = m.localizers[m.defaultLanguage.String()]
		if localizer == nil {
			return key
		}
	}

	localizeConfig := &i18n.LocalizeConfig{MessageID: key}

	templateData := make(map[string]interface{})
	var pluralCount *int

	i := 0
	for i < len(args) {
		switch v := args[i].(type) {
		case int:
			if pluralCount == nil {
				count := v
				pluralCount = &count
			}
			i++
		case string:
			if i+1 < len(args) {
				templateData[v] = args[i+1]
				i += 2
			} else {
				m.Logger.Warn("Odd number of arguments for TemplateData", zap.String("key", key))
				i++
			}
		case map[string]interface{}:
			if len(templateData) == 0 {
				templateData = v
			}
			i++
		default:
			m.Logger.Warn("Unsupported argument type in T", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", args[i])))
			i++
		}
	}

	if len(templateData) > 0 {
		localizeConfig.TemplateData = templateData
	}
	if pluralCount != nil {
		localizeConfig.PluralCount = pluralCount
	}

	localized, err := localizer.Localize(localizeConfig)
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) {
			m.Logger.Error("Failed to localize message", zap.String("key", key), zap.String("lang", langCode), zap.Error(err))
		}
		return key
	}

	return localized
}

// GetAvailableLanguages returns a copy of the code -> display name map.
func (m *Manager) GetAvailableLanguages() map[string]string {
	langs := make(map[string]string)
	for code, name := range m.availableLangs {
		langs[code] = name
	}
	return langs
}

func (m *Manager) GetDefaultLanguageTag() language.Tag {
	return m.defaultLanguage
}
