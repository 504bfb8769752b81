package keymap

import "fmt"

// CommandID is a stable string constant identifying a bindable command.
type CommandID string

const (
	CommandOpenVault         CommandID = "open_vault"
	CommandQuickOpen         CommandID = "quick_open"
	CommandCommandPalette    CommandID = "command_palette"
	CommandSettings          CommandID = "settings"
	CommandReloadVault       CommandID = "reload_vault"
	CommandNewNote           CommandID = "new_note"
	CommandSaveFile          CommandID = "save_file"
	CommandUndo              CommandID = "undo"
	CommandRedo              CommandID = "redo"
	CommandToggleSplit       CommandID = "toggle_split"
	CommandFocusExplorer     CommandID = "focus_explorer"
	CommandFocusSearch       CommandID = "focus_search"
	CommandAiRewriteSelection CommandID = "ai_rewrite_selection"
)

// CommandSpec describes one default-bound command.
type CommandSpec struct {
	ID              CommandID
	DefaultShortcut string // empty means intentionally unbound by default
}

// CommandSpecs returns the command table in stable declaration order.
func CommandSpecs() []CommandSpec {
	return []CommandSpec{
		{CommandOpenVault, "Ctrl+O"},
		{CommandQuickOpen, "Ctrl+P"},
		{CommandCommandPalette, "Ctrl+Shift+P"},
		{CommandSettings, "Ctrl+,"},
		{CommandReloadVault, "Ctrl+R"},
		{CommandNewNote, "Ctrl+N"},
		{CommandSaveFile, "Ctrl+S"},
		{CommandUndo, "Ctrl+Z"},
		{CommandRedo, "Ctrl+Shift+Z"},
		{CommandToggleSplit, "Ctrl+\\"},
		{CommandFocusExplorer, "Alt+1"},
		{CommandFocusSearch, "Alt+2"},
		{CommandAiRewriteSelection, ""},
	}
}

// ParseCommandID resolves a raw string to a known CommandID.
func ParseCommandID(raw string) (CommandID, error) {
	for _, spec := range CommandSpecs() {
		if string(spec.ID) == raw {
			return spec.ID, nil
		}
	}
	return "", fmt.Errorf("unknown command id: %q", raw)
}

const (
	defaultSourcePriority    uint8 = 10
	overridePriority         uint8 = 100
	minContextualPriority    uint8 = 120
)

// entry is a single binding.
type entry struct {
	command       CommandID
	chord         Chord
	chordText     string
	when          ContextExpr
	whenText      string
	sourcePriority uint8
	sourceOrder   int
}

// Keymap holds the full set of chord-to-command bindings, each carrying a
// priority and insertion order used to resolve ties.
type Keymap struct {
	entries []entry
}

// New returns an empty Keymap.
func New() *Keymap {
	return &Keymap{}
}

// DefaultKeymap builds a Keymap from CommandSpecs, binding each command's
// default shortcut (if any) at priority 10.
func DefaultKeymap() *Keymap {
	km := New()
	for order, spec := range CommandSpecs() {
		if spec.DefaultShortcut == "" {
			continue
		}
		_ = km.bindWithWhen(spec.DefaultShortcut, spec.ID, nil, defaultSourcePriority, order, true)
	}
	return km
}

// Bind is a convenience wrapper binding chord to command at priority 100,
// replacing any existing binding for that command.
func (km *Keymap) Bind(chord string, command CommandID) error {
	return km.bindWithWhen(chord, command, nil, overridePriority, len(km.entries), true)
}

func (km *Keymap) bindWithWhen(chordText string, command CommandID, when *string, sourcePriority uint8, sourceOrder int, clearExisting bool) error {
	c, ok := Parse(chordText)
	if !ok {
		return fmt.Errorf("invalid key chord: %s", chordText)
	}
	expr, err := ParseContextExpr(when)
	if err != nil {
		return err
	}

	if clearExisting {
		kept := km.entries[:0:0]
		for _, e := range km.entries {
			if e.command != command {
				kept = append(kept, e)
			}
		}
		km.entries = kept
	}

	whenText := ""
	if when != nil {
		whenText = *when
	}

	km.entries = append(km.entries, entry{
		command:        command,
		chord:          c,
		chordText:      c.String(),
		when:           expr,
		whenText:       whenText,
		sourcePriority: sourcePriority,
		sourceOrder:    sourceOrder,
	})
	return nil
}

// Override is one (command, chord) pair from ApplyOverrides.
type Override struct {
	Command CommandID
	Chord   string
}

// ApplyOverrides resolves each command id and replaces its existing
// bindings with the given chord at priority 100.
func (km *Keymap) ApplyOverrides(overrides []Override) error {
	for order, o := range overrides {
		cmd, err := ParseCommandID(string(o.Command))
		if err != nil {
			return err
		}
		if err := km.bindWithWhen(o.Chord, cmd, nil, overridePriority, order, true); err != nil {
			return err
		}
	}
	return nil
}

// ContextualOverride is one (command, chord, when) binding.
type ContextualOverride struct {
	Command CommandID
	Chord   string
	When    string
}

// ApplyContextualOverrides stacks contextual bindings alongside existing
// ones (it does not clear prior bindings for the same command) at the
// given source priority, which should be >= 120 to win over plain
// overrides at equal chord match.
func (km *Keymap) ApplyContextualOverrides(overrides []ContextualOverride, sourcePriority uint8) error {
	for order, o := range overrides {
		cmd, err := ParseCommandID(string(o.Command))
		if err != nil {
			return err
		}
		when := o.When
		if err := km.bindWithWhen(o.Chord, cmd, &when, sourcePriority, order, false); err != nil {
			return err
		}
	}
	return nil
}

// Resolve finds the command bound to chord under an empty context.
func (km *Keymap) Resolve(chordText string) (CommandID, bool) {
	c, ok := Parse(chordText)
	if !ok {
		return "", false
	}
	return km.resolveChord(c, NewContext())
}

// ResolveEvent finds the command bound to an incoming key event under an
// empty context.
func (km *Keymap) ResolveEvent(eventKey string, ctrl, alt, shift, meta bool) (CommandID, bool) {
	return km.ResolveEventInContext(eventKey, ctrl, alt, shift, meta, NewContext())
}

// ResolveEventInContext filters entries whose chord matches the event AND
// whose when-expression is satisfied by context, then returns the entry
// with the lexicographically greatest (sourcePriority, sourceOrder) —
// ties broken toward the later-inserted entry.
func (km *Keymap) ResolveEventInContext(eventKey string, ctrl, alt, shift, meta bool, context Context) (CommandID, bool) {
	var best *entry
	for i := range km.entries {
		e := &km.entries[i]
		if !e.chord.MatchesEvent(eventKey, ctrl, alt, shift, meta) {
			continue
		}
		if !e.when.Evaluate(context) {
			continue
		}
		if best == nil || better(*e, *best) {
			best = e
		}
	}
	if best == nil {
		return "", false
	}
	return best.command, true
}

func (km *Keymap) resolveChord(c Chord, context Context) (CommandID, bool) {
	var best *entry
	for i := range km.entries {
		e := &km.entries[i]
		if e.chord != c {
			continue
		}
		if !e.when.Evaluate(context) {
			continue
		}
		if best == nil || better(*e, *best) {
			best = e
		}
	}
	if best == nil {
		return "", false
	}
	return best.command, true
}

func better(a, b entry) bool {
	if a.sourcePriority != b.sourcePriority {
		return a.sourcePriority > b.sourcePriority
	}
	return a.sourceOrder > b.sourceOrder
}

// ShortcutFor returns the chord text of the highest-priority binding for
// command, if any.
func (km *Keymap) ShortcutFor(command CommandID) (string, bool) {
	var best *entry
	for i := range km.entries {
		e := &km.entries[i]
		if e.command != command {
			continue
		}
		if best == nil || better(*e, *best) {
			best = e
		}
	}
	if best == nil {
		return "", false
	}
	return best.chordText, true
}

// EffectiveWhenFor returns the when-text of the highest-priority binding
// for command, if any.
func (km *Keymap) EffectiveWhenFor(command CommandID) (string, bool) {
	var best *entry
	for i := range km.entries {
		e := &km.entries[i]
		if e.command != command {
			continue
		}
		if best == nil || better(*e, *best) {
			best = e
		}
	}
	if best == nil {
		return "", false
	}
	return best.whenText, true
}
