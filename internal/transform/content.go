package transform

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/listingbridge/internal/fields"
	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/product"
)

// localized returns the title and description src holds in lang, including
// "title_<lang>" / "description_<lang>" attributes.
func localized(src product.Source, lang platform.Language) (title, description string) {
	title = firstNonEmpty(src.Attr("title_"+string(lang)), src.Title(lang))
	description = firstNonEmpty(src.Attr("description_"+string(lang)), src.Description(lang))
	return title, description
}

// pickContent chooses the text to translate: the target language if the
// record has it, otherwise English, otherwise Japanese. The returned source
// language is empty when title and description come from different
// languages, so the translator detects each one.
func pickContent(src product.Source, target, override platform.Language) (title, description string, source platform.Language) {
	order := []platform.Language{target, platform.English, platform.Japanese}

	var titleLang, descLang platform.Language
	for _, lang := range order {
		t, _ := localized(src, lang)
		if strings.TrimSpace(t) != "" {
			title, titleLang = t, lang
			break
		}
	}
	for _, lang := range order {
		_, d := localized(src, lang)
		if strings.TrimSpace(d) != "" {
			description, descLang = d, lang
			break
		}
	}

	switch {
	case override != "":
		source = override
	case title == "" || description == "":
		source = firstLang(titleLang, descLang)
	case titleLang == descLang:
		source = titleLang
	}
	return title, description, source
}

func firstLang(langs ...platform.Language) platform.Language {
	for _, l := range langs {
		if l != "" {
			return l
		}
	}
	return ""
}

// isContentField reports whether id holds listing text that is translated
// and whose length limit is applied after translation.
func isContentField(id string) bool {
	return id == "title" || id == "description" ||
		strings.HasPrefix(id, "title_") || strings.HasPrefix(id, "description_")
}

// formData maps the canonical record onto the platform's field ids.
// Attributes win over canonical values, and attributes scoped to the
// target platform win over both.
func formData(src product.Source, cfg platform.PlatformConfig, title, description string) map[string]any {
	data := map[string]any{
		"title":          title,
		"description":    description,
		"sku":            src.SKU,
		"category":       src.Category,
		"condition":      src.Condition,
		"brand":          src.Brand,
		"origin_country": src.OriginCountry,
		"jan_code":       src.JAN,
		"upc":            src.UPC,
		"asin":           src.ASIN,
		"weight_g":       itoa(src.WeightG),
		"vendor":         src.Brand,
	}
	data["title_"+string(cfg.Language)] = title
	data["description_"+string(cfg.Language)] = description

	if src.PriceJPY.IsPositive() {
		data["price"] = src.PriceJPY.String()
	}

	overrides := map[string]string{}
	for k, v := range src.Attributes {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if scope, key, scoped := scopedAttribute(k); scoped {
			if scope == cfg.Platform {
				overrides[key] = v
			}
			continue
		}
		data[k] = v
	}
	for k, v := range overrides {
		data[k] = v
	}
	return data
}

// scopedAttribute splits a "<platform>.<key>" attribute name. Scoped
// attributes apply to that platform only and win over the bare key.
func scopedAttribute(name string) (p platform.Platform, key string, ok bool) {
	prefix, key, found := strings.Cut(name, ".")
	if !found || key == "" || !platform.Platform(prefix).Valid() {
		return "", "", false
	}
	return platform.Platform(prefix), key, true
}

// gateDefinitions returns the field definitions of p with the length limit
// of content fields removed.
func gateDefinitions(p platform.Platform) []fields.Definition {
	defs := fields.All(p)
	for i, d := range defs {
		if !isContentField(d.ID) || d.Validation == nil || d.Validation.Max == nil {
			continue
		}
		c := *d.Validation
		c.Max = nil
		defs[i].Validation = &c
	}
	return defs
}

// fitToField truncates text to the character limit of the platform's
// title or description field and warns when it did.
func fitToField(p platform.Platform, lang platform.Language, base, text string) (string, []string) {
	def, ok := fields.Lookup(p, base)
	if !ok {
		def, ok = fields.Lookup(p, base+"_"+string(lang))
	}
	if !ok || def.Validation == nil || def.Validation.Max == nil {
		return text, nil
	}

	limit := int(*def.Validation.Max)
	if utf8.RuneCountInString(text) <= limit {
		return text, nil
	}

	runes := []rune(text)
	return string(runes[:limit]), []string{
		fmt.Sprintf("%s exceeds %d characters on %s and was truncated", base, limit, platform.Config(p).DisplayName),
	}
}

// platformSpecific turns the non-content form values into the string bag
// carried by the transformed record.
func platformSpecific(data map[string]any, cfg platform.PlatformConfig, targetCountry string) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		if isContentField(k) {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			continue
		}
		out[k] = s
	}

	if targetCountry == "" {
		targetCountry = cfg.DefaultCountry
	}
	out["target_country"] = strings.ToUpper(targetCountry)
	return out
}
