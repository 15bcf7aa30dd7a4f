package query

import "strings"

// BangType identifies a filter in the bang catalog.
type BangType string

const (
	BangTitle      BangType = "title"
	BangURL        BangType = "url"
	BangFrozen     BangType = "frozen"
	BangAudio      BangType = "audio"
	BangPin        BangType = "pin"
	BangVault      BangType = "vault"
	BangGrouped    BangType = "grouped"
	BangSolo       BangType = "solo"
	BangDuplicate  BangType = "duplicate"
	BangLocal      BangType = "local"
	BangIP         BangType = "ip"
	BangBrowser    BangType = "browser"
	BangGroupName  BangType = "groupname"
	BangGroupColor BangType = "groupcolor"
)

// BangKind decides how a bang consumes the tokens after it.
type BangKind int

const (
	// KindTextScope bangs restrict free-text matching to one field.
	KindTextScope BangKind = iota
	// KindBoolean bangs take no value.
	KindBoolean
	// KindValue bangs take the following text as their argument.
	KindValue
)

func (k BangKind) String() string {
	switch k {
	case KindTextScope:
		return "text-scope"
	case KindBoolean:
		return "boolean"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// TakesValue reports whether the parser collects a value after the bang.
func (k BangKind) TakesValue() bool {
	return k == KindTextScope || k == KindValue
}

// CommandType identifies an action in the command catalog.
type CommandType string

const (
	CommandDelete  CommandType = "delete"
	CommandSave    CommandType = "save"
	CommandFreeze  CommandType = "freeze"
	CommandGroup   CommandType = "group"
	CommandUngroup CommandType = "ungroup"
)

// SortKey orders a result set.
type SortKey string

const (
	SortIndex SortKey = "index"
	SortTitle SortKey = "title"
	SortURL   SortKey = "url"
)

// BangDefinition is one entry of the bang catalog.
type BangDefinition struct {
	Type        BangType `json:"name"`
	Short       string   `json:"short,omitempty"`
	Description string   `json:"description"`
	Kind        BangKind `json:"-"`
}

// CommandDefinition is one entry of the command catalog.
type CommandDefinition struct {
	Type        CommandType `json:"name"`
	Short       string      `json:"short,omitempty"`
	Description string      `json:"description"`
	Destructive bool        `json:"destructive"`
	// Implemented is false for commands that parse but have no executor yet.
	Implemented bool `json:"implemented"`
}

var bangDefinitions = []BangDefinition{
	{BangTitle, "t", "Search in title only", KindTextScope},
	{BangURL, "u", "Search in URL only", KindTextScope},
	{BangFrozen, "f", "Discarded (frozen) tabs", KindBoolean},
	{BangAudio, "a", "Tabs playing audio", KindBoolean},
	{BangPin, "p", "Pinned tabs", KindBoolean},
	{BangVault, "v", "Tabs present in the vault", KindBoolean},
	{BangGrouped, "g", "Tabs in a group", KindBoolean},
	{BangSolo, "s", "Tabs not in any group", KindBoolean},
	{BangDuplicate, "d", "Tabs sharing a URL with another tab", KindBoolean},
	{BangLocal, "l", "Local or private network URLs", KindBoolean},
	{BangIP, "i", "URLs with a literal IP host", KindBoolean},
	{BangBrowser, "b", "Internal browser pages", KindBoolean},
	{BangGroupName, "gn", "Group title contains value", KindValue},
	{BangGroupColor, "gc", "Group color equals value", KindValue},
}

var commandDefinitions = []CommandDefinition{
	{CommandDelete, "d", "Close matching tabs", true, true},
	{CommandSave, "s", "Save matching tabs to the vault", false, true},
	{CommandFreeze, "f", "Discard matching tabs to free memory", false, true},
	{CommandGroup, "g", "Group matching tabs", false, false},
	{CommandUngroup, "ug", "Remove matching tabs from their groups", false, false},
}

var sortKeys = []SortKey{SortIndex, SortTitle, SortURL}

// sortDirectives maps the pseudo text terms that set the sort key.
var sortDirectives = map[string]SortKey{
	"sort:index": SortIndex,
	"sort:title": SortTitle,
	"sort:alpha": SortTitle,
	"sort:url":   SortURL,
}

// Alias tables: canonical name and short alias both map to the definition.
var (
	bangLookup    map[string]BangDefinition
	commandLookup map[string]CommandDefinition
)

func init() {
	bangLookup = make(map[string]BangDefinition, len(bangDefinitions)*2)
	for _, def := range bangDefinitions {
		bangLookup[string(def.Type)] = def
		if def.Short != "" {
			bangLookup[def.Short] = def
		}
	}
	commandLookup = make(map[string]CommandDefinition, len(commandDefinitions)*2)
	for _, def := range commandDefinitions {
		commandLookup[string(def.Type)] = def
		if def.Short != "" {
			commandLookup[def.Short] = def
		}
	}
}

// LookupBang resolves a bang name or short alias, case-insensitively.
func LookupBang(name string) (BangDefinition, bool) {
	def, ok := bangLookup[strings.ToLower(name)]
	return def, ok
}

// LookupCommand resolves a command name or short alias, case-insensitively.
func LookupCommand(name string) (CommandDefinition, bool) {
	def, ok := commandLookup[strings.ToLower(name)]
	return def, ok
}

// BangDefinitions returns a copy of the bang catalog in display order.
func BangDefinitions() []BangDefinition {
	return append([]BangDefinition(nil), bangDefinitions...)
}

// CommandDefinitions returns a copy of the command catalog in display order.
func CommandDefinitions() []CommandDefinition {
	return append([]CommandDefinition(nil), commandDefinitions...)
}

// AllBangNames lists canonical bang names for autocomplete.
func AllBangNames() []string {
	names := make([]string, 0, len(bangDefinitions))
	for _, def := range bangDefinitions {
		names = append(names, string(def.Type))
	}
	return names
}

// AllCommandNames lists canonical command names for autocomplete.
func AllCommandNames() []string {
	names := make([]string, 0, len(commandDefinitions))
	for _, def := range commandDefinitions {
		names = append(names, string(def.Type))
	}
	return names
}

// SortKeys lists the available sort keys.
func SortKeys() []SortKey {
	return append([]SortKey(nil), sortKeys...)
}

// ParseSortKey maps a key name to a SortKey; alpha is accepted for title.
func ParseSortKey(s string) (SortKey, bool) {
	key, ok := sortDirectives["sort:"+strings.ToLower(strings.TrimSpace(s))]
	return key, ok
}
