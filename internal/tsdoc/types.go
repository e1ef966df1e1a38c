// Package tsdoc extracts documentation tables from TypeScript declarations.
//
// Extraction is purely syntactic: exports are resolved within the given
// source text, and local interface and type alias references are followed.
// Types imported from other modules are reported by name.
package tsdoc

// Tags maps a JSDoc tag name (without @) to its text.
type Tags map[string]string

// TypeField is one documented field or parameter.
type TypeField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Tags        Tags   `json:"tags,omitempty"`
}

// Default returns the field's documented default value.
func (f TypeField) Default() string {
	if v := f.Tags["default"]; v != "" {
		return v
	}
	return f.Tags["defaultValue"]
}

// Returns describes a signature's return value: either Fields for
// object-shaped returns, or a single Type.
type Returns struct {
	Fields      []TypeField `json:"fields,omitempty"`
	Type        string      `json:"type,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Signature is one call signature of a function-like export.
type Signature struct {
	Params  []TypeField `json:"params"`
	Returns Returns     `json:"returns"`
}

// Definition is the extracted shape of an export: Entries for object-like
// declarations or Signatures for function-like ones.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	FilePath    string      `json:"filePath,omitempty"`
	Tags        Tags        `json:"tags,omitempty"`
	Entries     []TypeField `json:"entries,omitempty"`
	Signatures  []Signature `json:"signatures,omitempty"`
}

// IsFunction reports whether the definition describes call signatures.
func (d *Definition) IsFunction() bool { return len(d.Signatures) > 0 }

// Args selects what to extract.
type Args struct {
	Code string
	// ExportName defaults to "default".
	ExportName string
	// Flattened inlines nested object fields as dotted names.
	Flattened bool
	FilePath  string
}

func (a Args) exportName() string {
	if a.ExportName == "" {
		return "default"
	}
	return a.ExportName
}
