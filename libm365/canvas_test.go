package libm365

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func webPartControl(id string, zone, column, index int) *Control {
	controlType := ControlTypeWebPart
	return &Control{
		ControlType: &controlType,
		DisplayMode: 2,
		ID:          id,
		WebPartID:   "0f087d7f-520e-42b7-89c0-496aaf979d58",
		Position: &ControlPosition{
			ZoneIndex:     zone,
			SectionIndex:  column,
			SectionFactor: 12,
			LayoutIndex:   1,
			ControlIndex:  index,
		},
	}
}

func pageSettingsMarker() *Control {
	controlType := ControlTypePageSettings
	return &Control{ControlType: &controlType}
}

func TestParseLayoutPreservesUnknownKeys(t *testing.T) {
	canvasContent := `[{"controlType":3,"id":"c1","displayMode":2,` +
		`"position":{"zoneIndex":1,"sectionIndex":1,"controlIndex":1},` +
		`"webPartId":"wp1","reservedHeight":300,"addedFromPersistedData":true},` +
		`{"controlType":0,"pageSettingsSlice":{"isDefaultDescription":true}}]`

	layout, err := ParseLayout(canvasContent)
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}

	if len(layout.Controls) != 2 {
		t.Fatalf("Expected 2 controls, got %d", len(layout.Controls))
	}

	serialized, err := layout.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	for _, key := range []string{"reservedHeight", "addedFromPersistedData", "pageSettingsSlice", "isDefaultDescription"} {
		if !strings.Contains(serialized, key) {
			t.Errorf("Expected serialized layout to preserve key %q", key)
		}
	}
}

func TestSerializeEmptyLayout(t *testing.T) {
	layout := &Layout{}

	serialized, err := layout.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	if serialized != "[]" {
		t.Errorf("Expected '[]', got %q", serialized)
	}
}

func TestControlKindPredicates(t *testing.T) {
	if pageSettingsMarker().IsPlaceholder() {
		t.Error("Expected page settings marker to not be a placeholder")
	}
	if pageSettingsMarker().IsWebPart() {
		t.Error("Expected page settings marker to not be a web part")
	}

	placeholder := &Control{Position: &ControlPosition{ZoneIndex: 1, SectionIndex: 1}}
	if !placeholder.IsPlaceholder() {
		t.Error("Expected control without controlType to be a placeholder")
	}

	wp := webPartControl("c1", 1, 1, 1)
	if !wp.IsWebPart() {
		t.Error("Expected controlType 3 to be a web part")
	}
	if wp.IsPlaceholder() {
		t.Error("Expected web part to not be a placeholder")
	}
}

func TestEnsureDefaultSection(t *testing.T) {
	layout := &Layout{Controls: []*Control{pageSettingsMarker()}}

	layout.EnsureDefaultSection()

	if len(layout.Controls) != 2 {
		t.Fatalf("Expected 2 controls, got %d", len(layout.Controls))
	}

	added := layout.Controls[1]
	if !added.IsPlaceholder() {
		t.Error("Expected added control to be a placeholder")
	}
	if added.Position == nil {
		t.Fatal("Expected added control to have a position")
	}
	if added.Position.ZoneIndex != 1 || added.Position.SectionIndex != 1 {
		t.Errorf("Expected zoneIndex 1, sectionIndex 1, got %d, %d", added.Position.ZoneIndex, added.Position.SectionIndex)
	}
	if added.Position.SectionFactor != 12 {
		t.Errorf("Expected sectionFactor 12, got %d", added.Position.SectionFactor)
	}
	if added.Position.ControlIndex != 1 {
		t.Errorf("Expected controlIndex 1, got %d", added.Position.ControlIndex)
	}
}

func TestEnsureDefaultSectionNoopWhenSectionsExist(t *testing.T) {
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 1, 1, 1),
		pageSettingsMarker(),
	}}

	layout.EnsureDefaultSection()

	if len(layout.Controls) != 2 {
		t.Errorf("Expected layout to stay at 2 controls, got %d", len(layout.Controls))
	}
}

func TestSectionZonesAndNumbers(t *testing.T) {
	// Zones out of layout order with a gap; section numbers are ranks.
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 5, 1, 1),
		webPartControl("c2", 2, 1, 1),
		webPartControl("c3", 5, 2, 1),
		pageSettingsMarker(),
	}}

	zones := layout.SectionZones()
	if len(zones) != 2 || zones[0] != 2 || zones[1] != 5 {
		t.Errorf("Expected zones [2 5], got %v", zones)
	}

	if n := layout.SectionNumber(2); n != 1 {
		t.Errorf("Expected section number 1 for zone 2, got %d", n)
	}
	if n := layout.SectionNumber(5); n != 2 {
		t.Errorf("Expected section number 2 for zone 5, got %d", n)
	}
	if n := layout.SectionNumber(9); n != 0 {
		t.Errorf("Expected section number 0 for unknown zone, got %d", n)
	}
}

func TestResolveSection(t *testing.T) {
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 2, 1, 1),
		webPartControl("c2", 7, 1, 1),
	}}

	// Explicit section numbers map to zone ranks.
	zone, err := layout.ResolveSection(1)
	if err != nil {
		t.Fatalf("ResolveSection failed: %v", err)
	}
	if zone != 2 {
		t.Errorf("Expected zone 2 for section 1, got %d", zone)
	}

	// Zero selects the last section.
	zone, err = layout.ResolveSection(0)
	if err != nil {
		t.Fatalf("ResolveSection failed: %v", err)
	}
	if zone != 7 {
		t.Errorf("Expected zone 7 for default section, got %d", zone)
	}
}

func TestResolveSectionOutOfRange(t *testing.T) {
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 1, 1, 1),
	}}

	_, err := layout.ResolveSection(4)
	if err == nil {
		t.Fatal("Expected error for section 4 on a 1-section page")
	}

	var sectionErr *InvalidSectionError
	if !errors.As(err, &sectionErr) {
		t.Fatalf("Expected InvalidSectionError, got %T", err)
	}
	if sectionErr.Requested != 4 || sectionErr.Available != 1 {
		t.Errorf("Expected requested=4 available=1, got requested=%d available=%d", sectionErr.Requested, sectionErr.Available)
	}
	if !strings.Contains(err.Error(), "invalid section '4'") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestResolveColumnMissing(t *testing.T) {
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 1, 1, 1),
	}}

	_, err := layout.ResolveColumn(1, 3)
	if err == nil {
		t.Fatal("Expected error for missing column")
	}

	var columnErr *InvalidColumnError
	if !errors.As(err, &columnErr) {
		t.Fatalf("Expected InvalidColumnError, got %T", err)
	}
}

func TestInsertWebPartReplacesPlaceholder(t *testing.T) {
	// A never-edited page after EnsureDefaultSection: marker plus placeholder.
	layout := &Layout{Controls: []*Control{pageSettingsMarker()}}
	layout.EnsureDefaultSection()

	wp := &Control{WebPartID: "wp1", WebPartData: map[string]any{"title": "Text"}}
	if err := layout.InsertWebPart(1, 0, 0, wp); err != nil {
		t.Fatalf("InsertWebPart failed: %v", err)
	}

	// The placeholder is replaced, not joined: the count does not grow.
	if len(layout.Controls) != 2 {
		t.Fatalf("Expected 2 controls, got %d", len(layout.Controls))
	}

	inserted := layout.Controls[1]
	if !inserted.IsWebPart() {
		t.Fatal("Expected second control to be a web part")
	}
	if inserted.Position.ZoneIndex != 1 || inserted.Position.SectionIndex != 1 || inserted.Position.ControlIndex != 1 {
		t.Errorf("Expected position 1/1/1, got %d/%d/%d",
			inserted.Position.ZoneIndex, inserted.Position.SectionIndex, inserted.Position.ControlIndex)
	}
	if inserted.DisplayMode != 2 {
		t.Errorf("Expected displayMode 2, got %d", inserted.DisplayMode)
	}
	if inserted.ID == "" {
		t.Error("Expected a generated control ID")
	}
	if inserted.Emphasis == nil {
		t.Error("Expected emphasis to be set")
	}
}

func TestInsertWebPartAppendsWithoutOrder(t *testing.T) {
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 1, 1, 1),
		webPartControl("c2", 1, 1, 2),
		pageSettingsMarker(),
	}}

	wp := &Control{WebPartID: "wp-new"}
	if err := layout.InsertWebPart(1, 1, 0, wp); err != nil {
		t.Fatalf("InsertWebPart failed: %v", err)
	}

	if wp.Position.ControlIndex != 3 {
		t.Errorf("Expected new control at index 3, got %d", wp.Position.ControlIndex)
	}
	assertColumnIndexes(t, layout, 1, 1, []string{"c1", "c2", wp.ID})
}

func TestInsertWebPartAtOrderShiftsFollowers(t *testing.T) {
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 1, 1, 1),
		webPartControl("c2", 1, 1, 2),
		pageSettingsMarker(),
	}}

	wp := &Control{ID: "new", WebPartID: "wp-new"}
	if err := layout.InsertWebPart(1, 1, 1, wp); err != nil {
		t.Fatalf("InsertWebPart failed: %v", err)
	}

	// The new control takes index 1 and the existing pair shifts to 2 and 3.
	assertColumnIndexes(t, layout, 1, 1, []string{"new", "c1", "c2"})
}

func TestInsertWebPartMiddleOrder(t *testing.T) {
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 1, 1, 1),
		webPartControl("c2", 1, 1, 2),
		webPartControl("c3", 1, 1, 3),
	}}

	wp := &Control{ID: "new", WebPartID: "wp-new"}
	if err := layout.InsertWebPart(1, 1, 2, wp); err != nil {
		t.Fatalf("InsertWebPart failed: %v", err)
	}

	assertColumnIndexes(t, layout, 1, 1, []string{"c1", "new", "c2", "c3"})
}

func TestInsertWebPartOrderPastEndAppends(t *testing.T) {
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 1, 1, 1),
	}}

	wp := &Control{ID: "new", WebPartID: "wp-new"}
	if err := layout.InsertWebPart(1, 1, 99, wp); err != nil {
		t.Fatalf("InsertWebPart failed: %v", err)
	}

	assertColumnIndexes(t, layout, 1, 1, []string{"c1", "new"})
}

func TestInsertWebPartLeavesOtherColumnsAlone(t *testing.T) {
	layout := &Layout{Controls: []*Control{
		webPartControl("a1", 1, 1, 1),
		webPartControl("b1", 1, 2, 1),
		webPartControl("b2", 1, 2, 2),
		webPartControl("z1", 3, 1, 1),
	}}

	wp := &Control{ID: "new", WebPartID: "wp-new"}
	if err := layout.InsertWebPart(1, 2, 1, wp); err != nil {
		t.Fatalf("InsertWebPart failed: %v", err)
	}

	assertColumnIndexes(t, layout, 1, 2, []string{"new", "b1", "b2"})

	// Untouched columns keep their indexes.
	if layout.Controls[0].Position.ControlIndex != 1 {
		t.Errorf("Expected column 1 to be untouched, got index %d", layout.Controls[0].Position.ControlIndex)
	}
	for _, c := range layout.Controls {
		if c.ID == "z1" && c.Position.ControlIndex != 1 {
			t.Errorf("Expected zone 3 to be untouched, got index %d", c.Position.ControlIndex)
		}
	}
}

func TestInsertWebPartRenumbersSparseIndexes(t *testing.T) {
	// Indexes with gaps, as a hand-edited page can have.
	layout := &Layout{Controls: []*Control{
		webPartControl("c1", 1, 1, 2),
		webPartControl("c2", 1, 1, 9),
	}}

	wp := &Control{ID: "new", WebPartID: "wp-new"}
	if err := layout.InsertWebPart(1, 1, 0, wp); err != nil {
		t.Fatalf("InsertWebPart failed: %v", err)
	}

	assertColumnIndexes(t, layout, 1, 1, []string{"c1", "c2", "new"})
}

// assertColumnIndexes checks that the column's controls appear in layout order
// under the given IDs with contiguous 1-based controlIndex values.
func assertColumnIndexes(t *testing.T, layout *Layout, zone, column int, wantIDs []string) {
	t.Helper()

	var got []*Control
	for _, c := range layout.Controls {
		if c.Position != nil && c.Position.ZoneIndex == zone && c.Position.SectionIndex == column {
			got = append(got, c)
		}
	}

	if len(got) != len(wantIDs) {
		t.Fatalf("Expected %d controls in column, got %d", len(wantIDs), len(got))
	}

	for i, c := range got {
		if c.ID != wantIDs[i] {
			t.Errorf("Expected control %q at position %d, got %q", wantIDs[i], i, c.ID)
		}
		if c.Position.ControlIndex != i+1 {
			t.Errorf("Expected controlIndex %d for %q, got %d", i+1, c.ID, c.Position.ControlIndex)
		}
	}
}

func TestControlJSONRoundTrip(t *testing.T) {
	original := `{"controlType":3,"displayMode":2,"id":"abc","webPartId":"wp1",` +
		`"position":{"zoneIndex":1,"sectionIndex":2,"sectionFactor":6,"controlIndex":3},` +
		`"emphasis":{"zoneEmphasis":1},"reservedHeight":500}`

	var control Control
	if err := json.Unmarshal([]byte(original), &control); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if control.ControlType == nil || *control.ControlType != 3 {
		t.Error("Expected controlType 3")
	}
	if control.Position.SectionFactor != 6 {
		t.Errorf("Expected sectionFactor 6, got %d", control.Position.SectionFactor)
	}

	encoded, err := json.Marshal(&control)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Re-unmarshal failed: %v", err)
	}

	if decoded["reservedHeight"] == nil {
		t.Error("Expected reservedHeight to survive the round trip")
	}
	if decoded["webPartId"] != "wp1" {
		t.Errorf("Expected webPartId 'wp1', got %v", decoded["webPartId"])
	}
}

func TestParseLayoutMalformed(t *testing.T) {
	_, err := ParseLayout("{not json")
	if err == nil {
		t.Error("Expected error for malformed canvas content")
	}
}
