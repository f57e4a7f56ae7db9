// Package defaults embeds the built-in requirement table and SLO template table.
package defaults

import _ "embed"

//go:embed requirements.yaml
var Requirements []byte

//go:embed slo_templates.yaml
var SLOTemplates []byte
