package libm365

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
)

// Control types used in modern page canvas content. A control with no
// controlType at all is an empty-column placeholder.
const (
	ControlTypePageSettings = 0
	ControlTypeWebPart      = 3
)

// displayMode 2 is the mode the page editor writes for saved controls.
const defaultDisplayMode = 2

// ControlPosition locates a control on the page. zoneIndex identifies the
// horizontal section, sectionIndex the column within it, and controlIndex the
// 1-based ordinal of the control within that column.
type ControlPosition struct {
	ZoneIndex     int `json:"zoneIndex"`
	SectionIndex  int `json:"sectionIndex"`
	SectionFactor int `json:"sectionFactor,omitempty"`
	LayoutIndex   int `json:"layoutIndex,omitempty"`
	ControlIndex  int `json:"controlIndex,omitempty"`
}

// Control is one entry in a page layout: the page-settings marker, an empty
// column placeholder, or a web part. Keys this model does not know about are
// preserved across parse/serialize, since the layout is persisted wholesale
// and the page-settings marker carries fields owned by the server.
type Control struct {
	ControlType *int
	DisplayMode int
	ID          string
	Position    *ControlPosition
	WebPartID   string
	WebPartData map[string]any
	Emphasis    map[string]any

	extra map[string]json.RawMessage
}

// IsPlaceholder reports whether the control is an empty-column placeholder.
func (c *Control) IsPlaceholder() bool {
	return c.ControlType == nil
}

// IsWebPart reports whether the control is a web part.
func (c *Control) IsWebPart() bool {
	return c.ControlType != nil && *c.ControlType == ControlTypeWebPart
}

// UnmarshalJSON decodes a control, keeping unrecognized keys verbatim.
func (c *Control) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Control{}
	for key, val := range raw {
		var err error
		switch key {
		case "controlType":
			var v int
			err = json.Unmarshal(val, &v)
			c.ControlType = &v
		case "displayMode":
			err = json.Unmarshal(val, &c.DisplayMode)
		case "id":
			err = json.Unmarshal(val, &c.ID)
		case "position":
			err = json.Unmarshal(val, &c.Position)
		case "webPartId":
			err = json.Unmarshal(val, &c.WebPartID)
		case "webPartData":
			err = json.Unmarshal(val, &c.WebPartData)
		case "emphasis":
			err = json.Unmarshal(val, &c.Emphasis)
		default:
			if c.extra == nil {
				c.extra = make(map[string]json.RawMessage)
			}
			c.extra[key] = val
		}
		if err != nil {
			return fmt.Errorf("failed to decode control field %q: %w", key, err)
		}
	}

	return nil
}

// MarshalJSON encodes a control, re-emitting preserved unknown keys.
func (c *Control) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.extra)+7)
	for k, v := range c.extra {
		out[k] = v
	}
	if c.ControlType != nil {
		out["controlType"] = *c.ControlType
	}
	if c.DisplayMode != 0 {
		out["displayMode"] = c.DisplayMode
	}
	if c.ID != "" {
		out["id"] = c.ID
	}
	if c.Position != nil {
		out["position"] = c.Position
	}
	if c.WebPartID != "" {
		out["webPartId"] = c.WebPartID
	}
	if c.WebPartData != nil {
		out["webPartData"] = c.WebPartData
	}
	if c.Emphasis != nil {
		out["emphasis"] = c.Emphasis
	}
	return json.Marshal(out)
}

// Layout is the ordered list of controls parsed from a page's CanvasContent1
// field. Order is the page's rendering order and is semantically meaningful.
type Layout struct {
	Controls []*Control
}

// ParseLayout parses the CanvasContent1 JSON of a page.
func ParseLayout(canvasContent string) (*Layout, error) {
	var controls []*Control
	if err := json.Unmarshal([]byte(canvasContent), &controls); err != nil {
		return nil, fmt.Errorf("failed to parse canvas content: %w", err)
	}
	return &Layout{Controls: controls}, nil
}

// Serialize re-encodes the layout for persisting back to the page.
func (l *Layout) Serialize() (string, error) {
	if len(l.Controls) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l.Controls)
	if err != nil {
		return "", fmt.Errorf("failed to serialize canvas content: %w", err)
	}
	return string(data), nil
}

// InvalidSectionError reports a request for a section the page does not have.
type InvalidSectionError struct {
	Requested int
	Available int
}

func (e *InvalidSectionError) Error() string {
	return fmt.Sprintf("invalid section '%d': the page has %d section(s)", e.Requested, e.Available)
}

// InvalidColumnError reports a request for a column that does not exist in
// the resolved section.
type InvalidColumnError struct {
	ZoneIndex int
	Column    int
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("invalid column '%d': no such column in section with zoneIndex %d", e.Column, e.ZoneIndex)
}

// EnsureDefaultSection guarantees that at least one section exists to target.
// A page that never had content holds only the page-settings marker; in that
// case a default section-1/column-1 placeholder is added after it.
func (l *Layout) EnsureDefaultSection() {
	if len(l.Controls) != 1 {
		return
	}
	l.Controls = append(l.Controls, &Control{
		DisplayMode: defaultDisplayMode,
		Emphasis:    map[string]any{},
		Position: &ControlPosition{
			ZoneIndex:     1,
			SectionIndex:  1,
			SectionFactor: 12,
			LayoutIndex:   1,
			ControlIndex:  1,
		},
	})
}

// SectionZones returns the distinct zoneIndex values of positioned controls
// in ascending order. Section numbers exposed to callers are 1-based ranks
// into this list; they are derived from the current layout, never stored.
func (l *Layout) SectionZones() []int {
	var zones []int
	for _, c := range l.Controls {
		if c.Position == nil {
			continue
		}
		if !slices.Contains(zones, c.Position.ZoneIndex) {
			zones = append(zones, c.Position.ZoneIndex)
		}
	}
	sort.Ints(zones)
	return zones
}

// SectionNumber returns the 1-based section number for a zoneIndex, or 0 if
// the zone is not present in the layout.
func (l *Layout) SectionNumber(zoneIndex int) int {
	for i, zone := range l.SectionZones() {
		if zone == zoneIndex {
			return i + 1
		}
	}
	return 0
}

// ResolveSection maps a 1-based section number to its zoneIndex. A zero
// request selects the last existing section.
func (l *Layout) ResolveSection(requested int) (int, error) {
	zones := l.SectionZones()
	if requested == 0 {
		requested = len(zones)
	}
	if requested < 1 || requested > len(zones) {
		return 0, &InvalidSectionError{Requested: requested, Available: len(zones)}
	}
	return zones[requested-1], nil
}

// ResolveColumn returns the first control in the given zoneIndex and 1-based
// column. A zero column defaults to 1.
func (l *Layout) ResolveColumn(zoneIndex, column int) (*Control, error) {
	if column == 0 {
		column = 1
	}
	for _, c := range l.Controls {
		if c.Position != nil && c.Position.ZoneIndex == zoneIndex && c.Position.SectionIndex == column {
			return c, nil
		}
	}
	return nil, &InvalidColumnError{ZoneIndex: zoneIndex, Column: column}
}

// InsertWebPart places wp into the column identified by zoneIndex and column.
// order is the 1-based position among the controls already occupying that
// column; zero or past-the-end appends. After insertion the column's
// controlIndex values are renumbered to a contiguous 1..k sequence in layout
// order. The mutation is in-memory only; persisting is the caller's job.
func (l *Layout) InsertWebPart(zoneIndex, column, order int, wp *Control) error {
	anchor, err := l.ResolveColumn(zoneIndex, column)
	if err != nil {
		return err
	}

	controlType := ControlTypeWebPart
	wp.ControlType = &controlType
	wp.DisplayMode = defaultDisplayMode
	if wp.Emphasis == nil {
		wp.Emphasis = map[string]any{}
	}
	if wp.ID == "" {
		wp.ID = uuid.NewString()
	}
	wp.Position = &ControlPosition{
		ZoneIndex:     anchor.Position.ZoneIndex,
		SectionIndex:  anchor.Position.SectionIndex,
		SectionFactor: anchor.Position.SectionFactor,
		LayoutIndex:   anchor.Position.LayoutIndex,
	}

	if anchor.IsPlaceholder() {
		// An empty column holds exactly one control at position 1, so the
		// placeholder is replaced in place and order is ignored.
		wp.Position.ControlIndex = 1
		for i, c := range l.Controls {
			if c == anchor {
				l.Controls[i] = wp
				break
			}
		}
		return nil
	}

	indexes := l.columnControlIndexes(zoneIndex, anchor.Position.SectionIndex)
	if order < 1 || order > len(indexes) {
		// Append after the highest-indexed control in the column.
		at := l.findByControlIndex(zoneIndex, anchor.Position.SectionIndex, indexes[len(indexes)-1])
		l.Controls = slices.Insert(l.Controls, at+1, wp)
	} else {
		// Insert before the control currently at the requested rank.
		at := l.findByControlIndex(zoneIndex, anchor.Position.SectionIndex, indexes[order-1])
		l.Controls = slices.Insert(l.Controls, at, wp)
	}

	l.renumberColumn(zoneIndex, anchor.Position.SectionIndex)
	return nil
}

// columnControlIndexes returns the controlIndex values of all controls in the
// (zoneIndex, column) pair, sorted ascending.
func (l *Layout) columnControlIndexes(zoneIndex, column int) []int {
	var indexes []int
	for _, c := range l.Controls {
		if c.Position != nil && c.Position.ZoneIndex == zoneIndex && c.Position.SectionIndex == column {
			indexes = append(indexes, c.Position.ControlIndex)
		}
	}
	sort.Ints(indexes)
	return indexes
}

// findByControlIndex returns the layout position of the control in the given
// column with the given controlIndex, or -1.
func (l *Layout) findByControlIndex(zoneIndex, column, controlIndex int) int {
	for i, c := range l.Controls {
		if c.Position != nil && c.Position.ZoneIndex == zoneIndex &&
			c.Position.SectionIndex == column && c.Position.ControlIndex == controlIndex {
			return i
		}
	}
	return -1
}

// renumberColumn re-establishes the contiguous 1..k controlIndex sequence for
// the column, preserving layout order.
func (l *Layout) renumberColumn(zoneIndex, column int) {
	next := 0
	for _, c := range l.Controls {
		if c.Position != nil && c.Position.ZoneIndex == zoneIndex && c.Position.SectionIndex == column {
			next++
			c.Position.ControlIndex = next
		}
	}
}
