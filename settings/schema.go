package settings

import "github.com/invopop/jsonschema"

// Schema returns the JSON schema of the settings file.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	s := r.Reflect(&AppSettings{})
	s.Title = "codexmonitor settings"
	return s
}
