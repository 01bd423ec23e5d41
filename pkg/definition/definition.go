// Package definition models a pipeline definition as a typed tree:
// objects and parameters carrying ordered key/value fields. The remote
// service speaks a loosely typed nested mapping; keeping a typed tree
// locally makes the equality check that drives reconciliation precise.
package definition

import (
	"slices"
	"strings"
)

// Field is one key/value entry on an object or parameter. A field
// carries either a literal string value or a reference to another
// object's ID, never both.
type Field struct {
	Key         string
	StringValue string
	RefValue    string
}

// Object is one node of the pipeline DAG.
type Object struct {
	ID     string
	Name   string
	Fields []Field
}

// Parameter declares one substitutable parameter of the template.
type Parameter struct {
	ID         string
	Attributes []Field
}

// Definition is a complete pipeline definition template.
type Definition struct {
	Objects    []Object
	Parameters []Parameter
}

// Clone returns a deep copy. Every pipeline instance works on its own
// copy of the shared template; nothing is shared mutably.
func (d *Definition) Clone() *Definition {
	out := &Definition{
		Objects:    make([]Object, len(d.Objects)),
		Parameters: make([]Parameter, len(d.Parameters)),
	}
	for i, o := range d.Objects {
		out.Objects[i] = Object{ID: o.ID, Name: o.Name, Fields: slices.Clone(o.Fields)}
	}
	for i, p := range d.Parameters {
		out.Parameters[i] = Parameter{ID: p.ID, Attributes: slices.Clone(p.Attributes)}
	}
	return out
}

// Equal reports structural equality regardless of object, parameter,
// or field ordering. This is the no-op check of the reconciliation
// loop: a remote definition that is Equal to the desired one means
// nothing needs to be pushed.
func (d *Definition) Equal(other *Definition) bool {
	if d == nil || other == nil {
		return d == other
	}
	if len(d.Objects) != len(other.Objects) || len(d.Parameters) != len(other.Parameters) {
		return false
	}

	a, b := d.canonical(), other.canonical()
	if !slices.EqualFunc(a.Objects, b.Objects, objectsEqual) {
		return false
	}
	return slices.EqualFunc(a.Parameters, b.Parameters, parametersEqual)
}

func objectsEqual(a, b Object) bool {
	return a.ID == b.ID && a.Name == b.Name && slices.Equal(a.Fields, b.Fields)
}

func parametersEqual(a, b Parameter) bool {
	return a.ID == b.ID && slices.Equal(a.Attributes, b.Attributes)
}

// canonical returns a sorted deep copy used for comparison.
func (d *Definition) canonical() *Definition {
	c := d.Clone()
	for i := range c.Objects {
		sortFields(c.Objects[i].Fields)
	}
	for i := range c.Parameters {
		sortFields(c.Parameters[i].Attributes)
	}
	slices.SortFunc(c.Objects, func(a, b Object) int {
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortFunc(c.Parameters, func(a, b Parameter) int {
		return strings.Compare(a.ID, b.ID)
	})
	return c
}

// sortFields orders fields by key, then value. Keys may repeat (an
// object can depend on several others), so the value takes part in
// the order to keep the sort deterministic.
func sortFields(fields []Field) {
	slices.SortFunc(fields, func(a, b Field) int {
		if c := strings.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		if c := strings.Compare(a.StringValue, b.StringValue); c != 0 {
			return c
		}
		return strings.Compare(a.RefValue, b.RefValue)
	})
}
