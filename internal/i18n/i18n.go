// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

type I18n struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	defaultLang  string
}

var (
	instance *I18n
	once     sync.Once
)

// Initialize loads every *.json catalogue under localesPath. An empty path
// uses the catalogues compiled into the binary.
func Initialize(localesPath, defaultLang string) error {
	var err error
	once.Do(func() {
		instance, err = New(localesPath, defaultLang)
	})
	return err
}

func New(localesPath, defaultLang string) (*I18n, error) {
	if defaultLang == "" {
		defaultLang = "en"
	}
	i := &I18n{
		translations: make(map[string]map[string]string),
		defaultLang:  defaultLang,
	}

	var fsys fs.FS
	if localesPath != "" {
		fsys = os.DirFS(localesPath)
	} else {
		sub, err := fs.Sub(embeddedLocales, "locales")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}

	if err := i.LoadTranslations(fsys); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *I18n) LoadTranslations(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no locale files found")
	}

	for _, file := range files {
		lang := strings.TrimSuffix(filepath.Base(file), ".json")

		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", file, err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", file, err)
		}

		i.mu.Lock()
		i.translations[lang] = translations
		i.mu.Unlock()
	}

	return nil
}

func (i *I18n) T(lang, key string, args ...interface{}) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if text, ok := i.lookup(lang, key); ok {
		return format(text, args)
	}
	if lang != i.defaultLang {
		if text, ok := i.lookup(i.defaultLang, key); ok {
			return format(text, args)
		}
	}

	// Return key if no translation found
	return key
}

func (i *I18n) lookup(lang, key string) (string, bool) {
	translations, exists := i.translations[lang]
	if !exists {
		return "", false
	}
	text, exists := translations[key]
	return text, exists
}

func (i *I18n) Languages() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	langs := make([]string, 0, len(i.translations))
	for lang := range i.translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func format(text string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Global functions
func T(lang, key string, args ...interface{}) string {
	if instance != nil {
		return instance.T(lang, key, args...)
	}
	return key
}

func GetSupportedLanguages() []string {
	if instance == nil {
		return []string{"en"}
	}
	return instance.Languages()
}
