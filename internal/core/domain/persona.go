package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PersonaID identifies a domain persona, e.g. "product" or "science".
type PersonaID string

// DefaultPersonaID is used when a request carries no domain or an unknown one.
const DefaultPersonaID PersonaID = "general"

// Persona is the domain-specific voice injected into backend prompts.
type Persona struct {
	ID           PersonaID           `json:"id" yaml:"id"`
	Name         string              `json:"name" yaml:"name"`
	Description  string              `json:"description" yaml:"description"`
	Aliases      []string            `json:"aliases,omitempty" yaml:"aliases"`
	Instructions map[TaskKind]string `json:"instructions" yaml:"instructions"`
}

// Instruction returns the persona's instruction for task, or "" if it has none.
func (p Persona) Instruction(task TaskKind) string {
	return strings.TrimSpace(p.Instructions[task])
}

var ErrPersonaNotFound = errors.New("persona not found")

//go:embed personas.yaml
var builtinPersonas []byte

type personaFile struct {
	Personas []Persona `yaml:"personas"`
}

// PersonaCatalog is the read-only set of personas loaded at startup.
type PersonaCatalog struct {
	byID    map[PersonaID]Persona
	aliases map[string]PersonaID
}

// BuiltinPersonas parses the embedded persona catalog.
func BuiltinPersonas() (*PersonaCatalog, error) {
	return LoadPersonaCatalog(builtinPersonas)
}

// LoadPersonaCatalog parses a YAML persona catalog. The catalog must define the
// general persona with an instruction for every task, since it backs all lookups.
func LoadPersonaCatalog(data []byte) (*PersonaCatalog, error) {
	var file personaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse persona catalog: %w", err)
	}

	cat := &PersonaCatalog{
		byID:    make(map[PersonaID]Persona, len(file.Personas)),
		aliases: make(map[string]PersonaID),
	}
	for _, p := range file.Personas {
		id := PersonaID(strings.ToLower(strings.TrimSpace(string(p.ID))))
		if id == "" {
			return nil, fmt.Errorf("persona %q has no id", p.Name)
		}
		if _, dup := cat.byID[id]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", id)
		}
		p.ID = id
		cat.byID[id] = p
		for _, a := range p.Aliases {
			cat.aliases[strings.ToLower(strings.TrimSpace(a))] = id
		}
	}

	general, ok := cat.byID[DefaultPersonaID]
	if !ok {
		return nil, fmt.Errorf("persona catalog must define %q", DefaultPersonaID)
	}
	for _, task := range AllTasks() {
		if general.Instruction(task) == "" {
			return nil, fmt.Errorf("persona %q has no instruction for task %s", DefaultPersonaID, task)
		}
	}
	return cat, nil
}

// Get returns the persona with the exact id.
func (c *PersonaCatalog) Get(id PersonaID) (Persona, error) {
	p, ok := c.byID[id]
	if !ok {
		return Persona{}, ErrPersonaNotFound
	}
	return p, nil
}

// Lookup resolves a free-form domain tag to a persona, falling back to general.
func (c *PersonaCatalog) Lookup(domain string) Persona {
	key := strings.ToLower(strings.TrimSpace(domain))
	if p, ok := c.byID[PersonaID(key)]; ok {
		return p
	}
	if id, ok := c.aliases[key]; ok {
		return c.byID[id]
	}
	return c.byID[DefaultPersonaID]
}

// Instruction returns the instruction for task under domain. Personas that do
// not override a task inherit the general persona's text.
func (c *PersonaCatalog) Instruction(domain string, task TaskKind) string {
	if s := c.Lookup(domain).Instruction(task); s != "" {
		return s
	}
	return c.byID[DefaultPersonaID].Instruction(task)
}

// List returns all personas sorted by id.
func (c *PersonaCatalog) List() []Persona {
	out := make([]Persona, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
