package libm365

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownWebPart is returned when a web part identifier matches neither a
// standard web part name nor an id in the site's web part catalog.
var ErrUnknownWebPart = errors.New("unknown web part")

// standardWebParts maps the well-known first-party web part names to their
// fixed manifest ids. These ids are the same on every site.
var standardWebParts = map[string]string{
	"BingMap":             "e377ea37-9047-43b9-8cdb-a761be2f8e09",
	"ContentEmbed":        "490d7c76-1824-45b2-9de3-676421c997fa",
	"ContentRollup":       "daf0b71c-6de8-4ef7-b511-faae7c388708",
	"DocumentEmbed":       "b7dd04e1-19ce-4b24-9132-b60a1c2b910d",
	"Divider":             "2161a1c6-db61-4731-b97c-3cdb303f7cbb",
	"Events":              "20745d7d-8581-4a6c-bf26-68279bc123fc",
	"GroupCalendar":       "6676088b-e28e-4a90-b9cb-d0d0303cd2eb",
	"Hero":                "c4bd7b2f-7b6e-4599-8485-16504575f590",
	"Image":               "d1d91016-032f-456d-98a4-721247c305e8",
	"ImageGallery":        "af8be689-990e-492a-81f7-ba3e4cd3ed9c",
	"LinkPreview":         "6410b3b6-d440-4663-8744-378976dc041e",
	"List":                "f92bf067-bc19-489e-a556-7fe95f508720",
	"MicrosoftForms":      "b19b3b9e-8d13-4fec-a93c-401a091c0707",
	"NewsFeed":            "0ef418ba-5d19-4ade-9db0-b339873291d0",
	"NewsReel":            "a5df8fdf-b508-4b66-98a6-d83bc2597f63",
	"People":              "7f718435-ee4d-431c-bdbf-9c4ff326f46e",
	"QuickChart":          "91a50c94-865f-4f5c-8b4e-e49659e69772",
	"QuickLinks":          "c70391ea-0b10-4ee9-b2b4-006d3fcad0cd",
	"SiteActivity":        "eb95c819-ab8f-4689-bd03-0c2d65d47b1f",
	"Spacer":              "8654b779-4886-46d4-8ffb-b5ed960c6986",
	"Text":                "0f087d7f-520e-42b7-89c0-496aaf979d58",
	"VideoEmbed":          "275c0095-a77e-4f6d-a2a0-6a7626911518",
	"YammerEmbed":         "31e9537e-f9dc-40a4-8834-0e3b7df418bc",
	"CustomMessageRegion": "71c19a43-d08c-4178-8218-4df8554c0b0e",
}

// StandardWebPartID resolves a well-known web part name to its id. The lookup
// is case-insensitive.
func StandardWebPartID(name string) (string, bool) {
	for known, id := range standardWebParts {
		if strings.EqualFold(known, name) {
			return id, true
		}
	}
	return "", false
}

// StandardWebPartNames lists the recognized standard web part names.
func StandardWebPartNames() []string {
	names := make([]string, 0, len(standardWebParts))
	for name := range standardWebParts {
		names = append(names, name)
	}
	return names
}

// WebPartDefinition is one entry of the site's client-side web part catalog.
// ComponentData is the manifest-derived JSON blob that carries the web part's
// default webPartData payload.
type WebPartDefinition struct {
	ID            string `json:"Id"`
	Name          string `json:"Name"`
	ComponentData string `json:"ComponentData"`
}

// WebPartDefinitionList is the catalog response envelope.
type WebPartDefinitionList struct {
	Value []*WebPartDefinition `json:"value"`
}

// DefaultControl extracts the catalog entry's default web part control. The
// manifest id becomes the control's webPartId and the component data becomes
// its webPartData.
func (d *WebPartDefinition) DefaultControl() (*Control, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(d.ComponentData), &data); err != nil {
		return nil, fmt.Errorf("failed to parse component data for web part %s: %w", d.ID, err)
	}

	return &Control{
		WebPartID:   normalizeWebPartID(d.ID),
		WebPartData: data,
	}, nil
}

// normalizeWebPartID strips the brace wrapping some catalog responses apply.
func normalizeWebPartID(id string) string {
	return strings.ToLower(strings.Trim(id, "{}"))
}

// FindWebPart locates a catalog entry by id or by standard web part name.
// Returns ErrUnknownWebPart (wrapped with the identifier) on a miss.
func (list *WebPartDefinitionList) FindWebPart(identifier string) (*WebPartDefinition, error) {
	id := identifier
	if standardID, ok := StandardWebPartID(identifier); ok {
		id = standardID
	}

	for _, def := range list.Value {
		if strings.EqualFold(normalizeWebPartID(def.ID), normalizeWebPartID(id)) {
			return def, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownWebPart, identifier)
}

// MergeProperties overlays caller-supplied properties on top of template
// defaults. The merge is shallow: the caller wins key by key, nested values
// are replaced wholesale.
func MergeProperties(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// ParseJSONObject parses a caller-supplied JSON object string, as passed via
// --webpart-properties or --webpart-data.
func ParseJSONObject(s string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("malformed JSON payload %q: %w", s, err)
	}
	return m, nil
}
