package localization

import (
	"embed"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

const defaultLanguage = "en-us"

//go:embed locales/*.yaml
var locales embed.FS

var (
	LangCache        = make(map[string]map[string]interface{})
	AvailableLocales []string
	langCacheMutex   sync.RWMutex
)

// LoadLanguages parses every embedded locale file and fills LangCache. The
// language code is the file name without its extension.
func LoadLanguages() error {
	entries, err := locales.ReadDir("locales")
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			langCode := strings.TrimSuffix(name, path.Ext(name))

			data, err := locales.ReadFile(path.Join("locales", name))
			if err != nil {
				errs <- err
				return
			}

			langMap := make(map[string]interface{})
			if err := yaml.Unmarshal(data, &langMap); err != nil {
				slog.Error("Error unmarshalling locale file",
					"file", name,
					"error", err.Error())
				errs <- err
				return
			}

			langCacheMutex.Lock()
			LangCache[langCode] = langMap
			if !slices.Contains(AvailableLocales, langCode) {
				AvailableLocales = append(AvailableLocales, langCode)
			}
			langCacheMutex.Unlock()
		}(entry.Name())
	}

	wg.Wait()
	close(errs)

	return <-errs
}

// Get returns a lookup function for the best language of an Accept-Language
// header value, falling back to the default language.
func Get(acceptLanguage string) func(string) string {
	language := negotiate(acceptLanguage)

	return func(key string) string {
		langCacheMutex.RLock()
		defer langCacheMutex.RUnlock()

		if langMap, ok := LangCache[language]; ok {
			if value := GetStringFromNestedMap(langMap, key); value != "KEY_NOT_FOUND" {
				return value
			}
		}

		langMap, ok := LangCache[defaultLanguage]
		if !ok {
			return "KEY_NOT_FOUND"
		}
		return GetStringFromNestedMap(langMap, key)
	}
}

// negotiate walks the Accept-Language entries in order and returns the first
// loaded language matching either the full tag or its primary subtag.
func negotiate(header string) string {
	langCacheMutex.RLock()
	defer langCacheMutex.RUnlock()

	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}

		if _, ok := LangCache[tag]; ok {
			return tag
		}

		primary, _, _ := strings.Cut(tag, "-")
		for _, code := range AvailableLocales {
			if strings.HasPrefix(code, primary+"-") || code == primary {
				return code
			}
		}
	}

	return defaultLanguage
}

// Helper function to traverse nested map and get the final string value
func GetStringFromNestedMap(langMap map[string]interface{}, key string) string {
	keys := strings.Split(key, ".")
	currentMap := langMap

	for _, k := range keys {
		value, ok := currentMap[k]
		if !ok {
			return "KEY_NOT_FOUND"
		}

		if nestedMap, isMap := value.(map[string]interface{}); isMap {
			currentMap = nestedMap
		} else if strValue, isString := value.(string); isString {
			return strValue
		} else {
			return "KEY_NOT_FOUND"
		}
	}

	return "KEY_NOT_FOUND"
}
