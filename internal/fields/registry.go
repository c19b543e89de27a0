package fields

import (
	"fmt"
	"slices"

	"github.com/JonMunkholm/listingbridge/internal/platform"
)

// registry is populated by init in schema.go and read-only afterwards.
var registry = make(map[platform.Platform][]Group)

// register adds the field groups for a platform.
// Panics if the platform is already registered.
func register(p platform.Platform, groups ...Group) {
	if _, exists := registry[p]; exists {
		panic(fmt.Sprintf("fields already registered: %s", p))
	}
	registry[p] = groups
}

// verifyRegistry panics unless every platform has a schema whose required
// fields match the platform configuration and whose patterns compile.
func verifyRegistry() {
	for _, p := range platform.All() {
		groups, ok := registry[p]
		if !ok {
			panic(fmt.Sprintf("fields: platform %s has no field groups", p))
		}

		seen := make(map[string]bool)
		var required []string
		for _, g := range groups {
			for _, f := range g.Fields {
				if seen[f.ID] {
					panic(fmt.Sprintf("fields: duplicate field %s on %s", f.ID, p))
				}
				seen[f.ID] = true
				if f.Required {
					required = append(required, f.ID)
				}
				if f.Validation != nil && f.Validation.Pattern != "" {
					if _, err := compilePattern(f.Validation.Pattern); err != nil {
						panic(fmt.Sprintf("fields: bad pattern on %s.%s: %v", p, f.ID, err))
					}
				}
			}
		}

		want := platform.RequiredFields(p)
		slices.Sort(required)
		slices.Sort(want)
		if !slices.Equal(required, want) {
			panic(fmt.Sprintf("fields: required fields of %s are %v, platform config says %v", p, required, want))
		}
	}
}

// Groups returns the field groups for p in display order.
// The result is a copy. Unknown platforms yield nil.
func Groups(p platform.Platform) []Group {
	groups := registry[p]
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		g.Fields = slices.Clone(g.Fields)
		out[i] = g
	}
	return out
}

// All returns every field of p across groups, in display order.
func All(p platform.Platform) []Definition {
	var out []Definition
	for _, g := range registry[p] {
		out = append(out, g.Fields...)
	}
	return out
}

// Required returns the required fields of p.
func Required(p platform.Platform) []Definition {
	var out []Definition
	for _, g := range registry[p] {
		for _, f := range g.Fields {
			if f.Required {
				out = append(out, f)
			}
		}
	}
	return out
}

// Lookup finds a field of p by id.
func Lookup(p platform.Platform, id string) (Definition, bool) {
	for _, g := range registry[p] {
		for _, f := range g.Fields {
			if f.ID == id {
				return f, true
			}
		}
	}
	return Definition{}, false
}

// Report is the outcome of validating a whole form.
type Report struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// ValidateAllFields validates data against every field of p and reports every
// failure, keyed by field id. Unknown keys in data are ignored.
func ValidateAllFields(data map[string]any, p platform.Platform) Report {
	return ValidateFields(data, All(p))
}

// ValidateFields validates data against an explicit set of definitions.
func ValidateFields(data map[string]any, defs []Definition) Report {
	errs := make(map[string]string)
	for _, f := range defs {
		if res := ValidateField(data[f.ID], f); !res.Valid {
			errs[f.ID] = res.Error
		}
	}
	return Report{Valid: len(errs) == 0, Errors: errs}
}
