// Package catalog loads report descriptors from YAML.
//
// A default catalog covering every report the engine knows is embedded in
// the binary. An optional override file may replace entries by id or add
// new ones; it is merged on top of the default at startup. Descriptors are
// immutable once loaded.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/JonMunkholm/reports/internal/core"
)

//go:embed reports.yaml
var defaultCatalog []byte

// file is the YAML layout of a catalog.
type file struct {
	Reports []entry `mapstructure:"reports"`
}

type entry struct {
	ID             string   `mapstructure:"id"`
	Name           string   `mapstructure:"name"`
	Description    string   `mapstructure:"description"`
	Procedure      string   `mapstructure:"procedure"`
	Format         string   `mapstructure:"format"`
	Deliver        string   `mapstructure:"deliver"`
	Template       string   `mapstructure:"template"`
	HeaderTemplate string   `mapstructure:"header_template"`
	TitleTemplate  string   `mapstructure:"title_template"`
	FooterTemplate string   `mapstructure:"footer_template"`
	Required       []string `mapstructure:"required"`
	SplitParam     string   `mapstructure:"split_param"`
	Filters        []filter `mapstructure:"filters"`
}

type filter struct {
	Param    string            `mapstructure:"param"`
	To       string            `mapstructure:"to"`
	Kind     string            `mapstructure:"kind"`
	Template string            `mapstructure:"template"`
	Lookup   string            `mapstructure:"lookup"`
	Values   map[string]string `mapstructure:"values"`
}

// Catalog holds the loaded descriptors. It implements core.Catalog.
type Catalog struct {
	byID  map[core.ReportID]*core.Descriptor
	order []core.ReportID
}

// Load reads the embedded catalog and merges the file at path over it.
// An empty path loads the embedded catalog only.
func Load(path string) (*Catalog, error) {
	base, err := readEntries(func(v *viper.Viper) error {
		v.SetConfigType("yaml")
		return v.ReadConfig(bytes.NewReader(defaultCatalog))
	})
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}

	if path != "" {
		override, err := readEntries(func(v *viper.Viper) error {
			v.SetConfigFile(path)
			return v.ReadInConfig()
		})
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		base = merge(base, override)
	}

	return build(base)
}

// Parse builds a catalog from YAML bytes alone, without the embedded
// default.
func Parse(data []byte) (*Catalog, error) {
	entries, err := readEntries(func(v *viper.Viper) error {
		v.SetConfigType("yaml")
		return v.ReadConfig(bytes.NewReader(data))
	})
	if err != nil {
		return nil, err
	}
	return build(entries)
}

func readEntries(read func(v *viper.Viper) error) ([]entry, error) {
	v := viper.New()
	if err := read(v); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return f.Reports, nil
}

// merge replaces base entries with override entries of the same id and
// appends new ones.
func merge(base, override []entry) []entry {
	pos := make(map[string]int, len(base))
	for i, e := range base {
		pos[e.ID] = i
	}
	out := append([]entry(nil), base...)
	for _, e := range override {
		if i, ok := pos[e.ID]; ok {
			out[i] = e
			continue
		}
		pos[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

func build(entries []entry) (*Catalog, error) {
	c := &Catalog{byID: make(map[core.ReportID]*core.Descriptor, len(entries))}

	var errs []error
	for i, e := range entries {
		d, err := e.descriptor()
		if err != nil {
			errs = append(errs, fmt.Errorf("report #%d (%s): %w", i+1, e.ID, err))
			continue
		}
		if _, dup := c.byID[d.ID]; dup {
			errs = append(errs, fmt.Errorf("report %s: duplicate id", d.ID))
			continue
		}
		c.byID[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func (e entry) descriptor() (*core.Descriptor, error) {
	if strings.TrimSpace(e.ID) == "" {
		return nil, errors.New("id is required")
	}

	format := core.OutputFormat(strings.ToLower(e.Format))
	if format != core.FormatTabular && format != core.FormatMarkup {
		return nil, fmt.Errorf("format %q must be tabular or markup", e.Format)
	}

	var deliver core.DocFormat
	if e.Deliver != "" {
		f, ok := core.ParseDocFormat(e.Deliver)
		if !ok || !format.Allows(f) {
			return nil, fmt.Errorf("deliver %q is not available for %s reports", e.Deliver, format)
		}
		deliver = f
	}

	if format == core.FormatMarkup && e.Template == "" {
		return nil, errors.New("markup reports need a template")
	}

	d := &core.Descriptor{
		ID:             core.ReportID(e.ID),
		Name:           e.Name,
		Description:    e.Description,
		Procedure:      e.Procedure,
		Template:       e.Template,
		Format:         format,
		Deliver:        deliver,
		HeaderTemplate: e.HeaderTemplate,
		TitleTemplate:  e.TitleTemplate,
		FooterTemplate: e.FooterTemplate,
		Required:       e.Required,
		SplitParam:     e.SplitParam,
	}
	if d.Name == "" {
		d.Name = e.ID
	}

	for i, f := range e.Filters {
		rule, err := f.rule()
		if err != nil {
			return nil, fmt.Errorf("filter #%d (%s): %w", i+1, f.Param, err)
		}
		d.Filters = append(d.Filters, rule)
	}
	return d, nil
}

func (f filter) rule() (core.FilterRule, error) {
	kind := core.FilterKind(strings.ToLower(f.Kind))
	if kind == "" {
		kind = core.FilterText
	}
	switch {
	case !kind.Valid():
		return core.FilterRule{}, fmt.Errorf("unknown kind %q", f.Kind)
	case f.Param == "":
		return core.FilterRule{}, errors.New("param is required")
	case kind.IsRange() && f.To == "":
		return core.FilterRule{}, fmt.Errorf("%s needs a to parameter", kind)
	case kind == core.FilterEnum && len(f.Values) == 0:
		return core.FilterRule{}, errors.New("enum needs values")
	case kind == core.FilterLookup && f.Lookup == "":
		return core.FilterRule{}, errors.New("lookup needs a result set name")
	case kind != core.FilterEnum && f.Template == "":
		return core.FilterRule{}, errors.New("template is required")
	}

	return core.FilterRule{
		Param:    f.Param,
		To:       f.To,
		Kind:     kind,
		Template: f.Template,
		Lookup:   f.Lookup,
		Values:   f.Values,
	}, nil
}

// Descriptor returns the descriptor for id.
func (c *Catalog) Descriptor(id core.ReportID) (*core.Descriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// List returns all descriptors in catalog order.
func (c *Catalog) List() []*core.Descriptor {
	out := make([]*core.Descriptor, len(c.order))
	for i, id := range c.order {
		out[i] = c.byID[id]
	}
	return out
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int { return len(c.order) }

// Check verifies that every catalog entry has a code definition of the same
// output format. Definitions without a catalog entry are reported too; they
// can never be requested.
func (c *Catalog) Check(reg *core.Registry) error {
	var errs []string
	for _, id := range c.order {
		def, ok := reg.Lookup(id)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: no definition registered", id))
			continue
		}
		if def.Format != c.byID[id].Format {
			errs = append(errs, fmt.Sprintf("%s: catalog format %s, definition format %s", id, c.byID[id].Format, def.Format))
		}
	}
	for _, def := range reg.All() {
		if _, ok := c.byID[def.ID]; !ok {
			errs = append(errs, fmt.Sprintf("%s: not in catalog", def.ID))
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("catalog check failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
