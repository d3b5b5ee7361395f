package event

import (
	"strconv"
	"strings"
	"time"
)

// accessor renders one well-known field of Data as an invariant string.
type accessor func(Data) string

// fieldTable maps canonical lower-cased field names to typed accessors.
// Timestamps render as RFC 3339, numbers via strconv, genre lists
// comma-joined. Names not present here fall back to the Extra map.
var fieldTable = map[string]accessor{
	"eventtype":     func(d Data) string { return string(d.Type) },
	"timestamp":     func(d Data) string { return d.Timestamp.UTC().Format(time.RFC3339) },
	"userid":        func(d Data) string { return d.UserID },
	"username":      func(d Data) string { return d.UserName },
	"sessionid":     func(d Data) string { return d.SessionID },
	"deviceid":      func(d Data) string { return d.DeviceID },
	"devicename":    func(d Data) string { return d.DeviceName },
	"clientname":    func(d Data) string { return d.ClientName },
	"itemid":        func(d Data) string { return d.ItemID },
	"itemname":      func(d Data) string { return d.ItemName },
	"itemtype":      func(d Data) string { return d.ItemType },
	"itempath":      func(d Data) string { return d.ItemPath },
	"seriesname":    func(d Data) string { return d.SeriesName },
	"seasonnumber":  func(d Data) string { return formatInt(d.SeasonNumber) },
	"episodenumber": func(d Data) string { return formatInt(d.EpisodeNumber) },
	"year":          func(d Data) string { return formatInt(d.Year) },
	"genres":        func(d Data) string { return strings.Join(d.Genres, ",") },
	"contentrating": func(d Data) string { return d.ContentRating },
}

// KnownFields returns the canonical names the dispatch table resolves.
func KnownFields() []string {
	names := make([]string, 0, len(fieldTable))
	for name := range fieldTable {
		names = append(names, name)
	}
	return names
}

// CanonicalField lower-cases a field name for table lookup.
func CanonicalField(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Field resolves a field name against d. Well-known names hit the
// dispatch table; anything else falls back to the Extra map (exact key
// first, then case-insensitive). Unresolvable names yield "".
func (d Data) Field(name string) string {
	if acc, ok := fieldTable[CanonicalField(name)]; ok {
		return acc(d)
	}
	if v, ok := d.Extra[name]; ok {
		return v
	}
	for k, v := range d.Extra {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
