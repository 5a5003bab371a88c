// Package markup flattens report aggregates into template contexts and
// renders them with mustache templates.
//
// Aggregates describe themselves through Fields; there is no reflection.
// Scalar keys are underscore-joined paths, so a nested Consignment's
// ShipName becomes Consignment_ShipName. Collections keep their own
// per-item contexts, flattened from an empty prefix, for use in sections.
package markup

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDepth bounds nesting during flattening.
const MaxDepth = 8

// DateLayout formats date scalars.
const DateLayout = "02/01/2006"

// ErrTooDeep is returned when an aggregate nests deeper than MaxDepth,
// which only a cyclic aggregate does.
var ErrTooDeep = errors.New("markup: aggregate nested too deep")

// Context is a flattened template context.
type Context map[string]any

// Flattener is implemented by every aggregate that can be rendered.
type Flattener interface {
	Fields() []Field
}

type fieldKind int

const (
	fieldScalar fieldKind = iota
	fieldNested
	fieldCollection
)

// Field is one entry of an aggregate's field list.
type Field struct {
	name   string
	kind   fieldKind
	value  any
	nested Flattener
	items  []Flattener
}

// Scalar declares a leaf value.
func Scalar(name string, v any) Field {
	return Field{name: name, kind: fieldScalar, value: v}
}

// Nested declares an object flattened in place under name.
func Nested(name string, f Flattener) Field {
	return Field{name: name, kind: fieldNested, nested: f}
}

// Collection declares an ordered list of objects kept under one key.
func Collection[T Flattener](name string, items []T) Field {
	fs := make([]Flattener, len(items))
	for i, it := range items {
		fs[i] = it
	}
	return Field{name: name, kind: fieldCollection, items: fs}
}

// Flatten builds the template context of f.
func Flatten(f Flattener) (Context, error) {
	ctx := make(Context)
	if err := flattenInto(ctx, "", f, 0); err != nil {
		return nil, err
	}
	return ctx, nil
}

func flattenInto(ctx Context, prefix string, f Flattener, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w at %q", ErrTooDeep, prefix)
	}
	if f == nil {
		return nil
	}

	for _, field := range f.Fields() {
		key := field.name
		if prefix != "" {
			key = prefix + "_" + field.name
		}

		switch field.kind {
		case fieldScalar:
			ctx[key] = scalar(field.value)
		case fieldNested:
			if err := flattenInto(ctx, key, field.nested, depth+1); err != nil {
				return err
			}
		case fieldCollection:
			items := make([]Context, 0, len(field.items))
			for _, it := range field.items {
				item := make(Context)
				if err := flattenInto(item, "", it, depth+1); err != nil {
					return err
				}
				items = append(items, item)
			}
			ctx[key] = items
		}
	}
	return nil
}

func scalar(v any) any {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return t.Format(DateLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t.Format(DateLayout)
	case decimal.Decimal:
		return t.String()
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *int64:
		if t == nil {
			return nil
		}
		return *t
	case *float64:
		if t == nil {
			return nil
		}
		return *t
	}
	return v
}
