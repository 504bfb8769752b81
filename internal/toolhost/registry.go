package toolhost

import (
	"fmt"
	"sort"
	"strings"
)

// ToolRisk classifies how much latitude a tool has over vault state.
type ToolRisk int

const (
	RiskReadOnly ToolRisk = iota
	RiskWriteSafe
	RiskDestructive
)

func (r ToolRisk) String() string {
	switch r {
	case RiskReadOnly:
		return "ReadOnly"
	case RiskWriteSafe:
		return "WriteSafe"
	case RiskDestructive:
		return "Destructive"
	default:
		return "Unknown"
	}
}

// ToolSpec describes one callable tool.
type ToolSpec struct {
	Name          string
	Description   string
	Risk          ToolRisk
	RequiredArgs  []string
}

// Policy gates which tools a given rewrite request may invoke.
type Policy struct {
	AllowWrite       bool
	AllowDestructive bool
	Allowlist        map[string]struct{} // nil = unrestricted
}

// Registry holds the set of tools an AI provider may call.
type Registry struct {
	specs map[string]ToolSpec
}

// WithXNoteDefaults returns a Registry pre-populated with the four
// built-in xnote tools.
func WithXNoteDefaults() *Registry {
	r := &Registry{specs: make(map[string]ToolSpec)}
	r.Register(ToolSpec{
		Name:         "xnote.vault.read_note",
		Description:  "Read a markdown note from the current vault by relative note path.",
		Risk:         RiskReadOnly,
		RequiredArgs: []string{"note_path"},
	})
	r.Register(ToolSpec{
		Name:         "xnote.knowledge.search",
		Description:  "Search indexed note contents by keyword query and return matched notes with previews.",
		Risk:         RiskReadOnly,
		RequiredArgs: []string{"query"},
	})
	r.Register(ToolSpec{
		Name:         "xnote.vault.write_note",
		Description:  "Write markdown note content to a vault-relative note path.",
		Risk:         RiskWriteSafe,
		RequiredArgs: []string{"note_path", "content"},
	})
	r.Register(ToolSpec{
		Name:         "xnote.vault.apply_patch",
		Description:  "Apply a structured patch to vault files (reserved, destructive).",
		Risk:         RiskDestructive,
		RequiredArgs: []string{"path", "patch"},
	})
	return r
}

// Register adds or replaces a tool spec, keyed by its canonical name.
func (r *Registry) Register(spec ToolSpec) {
	r.specs[canonicalToolName(spec.Name)] = spec
}

// SpecsSorted returns every registered spec, sorted by name.
func (r *Registry) SpecsSorted() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.specs))
	for _, s := range r.specs {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// ValidateRequest checks request against the registry and policy:
// registration, allowlist membership, risk-level permission, and
// required-argument presence.
func (r *Registry) ValidateRequest(request ToolRequest, policy Policy) error {
	toolName := canonicalToolName(request.ToolName)
	spec, ok := r.specs[toolName]
	if !ok {
		return fmt.Errorf("tool `%s` is not registered", request.ToolName)
	}

	if policy.Allowlist != nil {
		if _, allowed := policy.Allowlist[toolName]; !allowed {
			return fmt.Errorf("tool `%s` is blocked by allowlist", spec.Name)
		}
	}

	switch spec.Risk {
	case RiskReadOnly:
	case RiskWriteSafe:
		if !policy.AllowWrite {
			return fmt.Errorf("tool `%s` requires write permission", spec.Name)
		}
	case RiskDestructive:
		if !policy.AllowDestructive {
			return fmt.Errorf("tool `%s` requires destructive permission", spec.Name)
		}
		if !policy.AllowWrite {
			return fmt.Errorf("tool `%s` requires write permission", spec.Name)
		}
	}

	for _, required := range spec.RequiredArgs {
		key := canonicalToolKey(required)
		value, present := request.Args[key]
		if !present || strings.TrimSpace(value) == "" {
			return fmt.Errorf("tool `%s` missing required argument `%s`", spec.Name, required)
		}
	}

	return nil
}

// ParseAndValidateFirst parses the first tool-request block in
// responseText (if any) and validates it against registry/policy.
func ParseAndValidateFirst(responseText string, registry *Registry, policy Policy) (*ToolRequest, error) {
	request, err := ParseFirst(responseText)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, nil
	}
	if err := registry.ValidateRequest(*request, policy); err != nil {
		return nil, err
	}
	return request, nil
}
