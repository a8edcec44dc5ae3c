// Package schema loads and validates the section catalogue of the project
// plan. The catalogue is declarative: each section lists its tables (with
// column definitions and duplicate policies) and its narrative fields.
package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

//go:embed sections.yaml
var defaultCatalogue []byte

// catalogue is the on-disk document shape.
type catalogue struct {
	Sections []types.SectionSchema `yaml:"sections"`
}

// Registry is a validated, read-only section catalogue.
type Registry struct {
	sections []types.SectionSchema
	byID     map[string]int
	fields   map[string]fieldRef
}

type fieldRef struct {
	section int
	entry   int
}

// Default returns the registry built from the embedded catalogue.
func Default() (*Registry, error) {
	return Load(defaultCatalogue)
}

// LoadFile reads a catalogue from path. An empty path yields Default.
func LoadFile(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sections file %s: %w", path, err)
	}
	reg, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Load decodes and validates a YAML catalogue.
func Load(data []byte) (*Registry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: catalogue is empty", types.ErrSchemaInvalid)
	}
	var doc catalogue
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode catalogue: %v", types.ErrSchemaInvalid, err)
	}
	return New(doc.Sections)
}

// New validates sections and builds a Registry over them.
func New(sections []types.SectionSchema) (*Registry, error) {
	r := &Registry{
		sections: sections,
		byID:     make(map[string]int, len(sections)),
		fields:   make(map[string]fieldRef),
	}
	for si, s := range sections {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("%w: section[%d]: id is required", types.ErrSchemaInvalid, si)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate section %s", types.ErrSchemaInvalid, s.ID)
		}
		r.byID[s.ID] = si

		if err := validateTables(s); err != nil {
			return nil, err
		}
		for ei, e := range s.SingleEntries {
			if strings.TrimSpace(e.Field) == "" {
				return nil, fmt.Errorf("%w: section %s: single_entries[%d]: field is required",
					types.ErrSchemaInvalid, s.ID, ei)
			}
			if prev, dup := r.fields[e.Field]; dup {
				return nil, fmt.Errorf("%w: single-entry field %s declared in %s and %s",
					types.ErrSchemaInvalid, e.Field, sections[prev.section].ID, s.ID)
			}
			r.fields[e.Field] = fieldRef{section: si, entry: ei}
		}
	}
	return r, nil
}

func validateTables(s types.SectionSchema) error {
	tables := make(map[string]bool, len(s.Tables))
	for ti, t := range s.Tables {
		if strings.TrimSpace(t.Key) == "" {
			return fmt.Errorf("%w: section %s: tables[%d]: key is required", types.ErrSchemaInvalid, s.ID, ti)
		}
		if tables[t.Key] {
			return fmt.Errorf("%w: section %s: duplicate table %s", types.ErrSchemaInvalid, s.ID, t.Key)
		}
		tables[t.Key] = true

		if len(t.Columns) == 0 {
			return fmt.Errorf("%w: table %s/%s has no columns", types.ErrSchemaInvalid, s.ID, t.Key)
		}
		columns := make(map[string]bool, len(t.Columns))
		for ci, c := range t.Columns {
			if strings.TrimSpace(c.Key) == "" {
				return fmt.Errorf("%w: table %s/%s: columns[%d]: key is required",
					types.ErrSchemaInvalid, s.ID, t.Key, ci)
			}
			if columns[c.Key] {
				return fmt.Errorf("%w: table %s/%s: duplicate column %s",
					types.ErrSchemaInvalid, s.ID, t.Key, c.Key)
			}
			columns[c.Key] = true
		}
		for _, k := range t.UniqueKeys {
			if !columns[k] {
				return fmt.Errorf("%w: table %s/%s: unique key %s is not a column",
					types.ErrSchemaInvalid, s.ID, t.Key, k)
			}
		}
		if t.ExtraColumns != nil {
			var seen []types.ExtraColumn
			for _, label := range t.ExtraColumns.Defaults {
				label, err := types.CheckColumnLabel(label, t.Columns, seen)
				if err != nil {
					return fmt.Errorf("%w: table %s/%s: default column: %v",
						types.ErrSchemaInvalid, s.ID, t.Key, err)
				}
				seen = append(seen, types.ExtraColumn{Label: label})
			}
		}
	}
	return nil
}

// Sections returns the sections in declaration order.
func (r *Registry) Sections() []types.SectionSchema {
	return r.sections
}

// Section returns the section with the given id.
func (r *Registry) Section(id string) (types.SectionSchema, error) {
	i, ok := r.byID[id]
	if !ok {
		return types.SectionSchema{}, fmt.Errorf("%w: %s", types.ErrUnknownSection, id)
	}
	return r.sections[i], nil
}

// Table returns the table tableKey of section sectionID.
func (r *Registry) Table(sectionID, tableKey string) (types.TableSchema, error) {
	s, err := r.Section(sectionID)
	if err != nil {
		return types.TableSchema{}, err
	}
	t, ok := s.Table(tableKey)
	if !ok {
		return types.TableSchema{}, fmt.Errorf("%w: %s/%s", types.ErrUnknownTable, sectionID, tableKey)
	}
	return t, nil
}

// SingleEntry returns the definition of a narrative field and the id of
// the section that declares it.
func (r *Registry) SingleEntry(field string) (types.SingleEntryDef, string, error) {
	ref, ok := r.fields[field]
	if !ok {
		return types.SingleEntryDef{}, "", fmt.Errorf("%w: %s", types.ErrUnknownField, field)
	}
	s := r.sections[ref.section]
	return s.SingleEntries[ref.entry], s.ID, nil
}
