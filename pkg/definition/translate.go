package definition

import "sort"

// Wire-format fragments for the remote API. Every put/validate call
// sends the definition as three ordered lists: objects, parameter
// declarations, and parameter values.

type APIField struct {
	Key         string `json:"key"`
	StringValue string `json:"stringValue,omitempty"`
	RefValue    string `json:"refValue,omitempty"`
}

type APIObject struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Fields []APIField `json:"fields"`
}

type APIParameter struct {
	ID         string     `json:"id"`
	Attributes []APIField `json:"attributes"`
}

type APIParameterValue struct {
	ID          string `json:"id"`
	StringValue string `json:"stringValue"`
}

// APIObjects translates the definition's objects into wire format,
// preserving definition order.
func APIObjects(d *Definition) []APIObject {
	out := make([]APIObject, len(d.Objects))
	for i, o := range d.Objects {
		out[i] = APIObject{ID: o.ID, Name: o.Name, Fields: apiFields(o.Fields)}
	}
	return out
}

// APIParameters translates the definition's parameter declarations
// into wire format.
func APIParameters(d *Definition) []APIParameter {
	out := make([]APIParameter, len(d.Parameters))
	for i, p := range d.Parameters {
		out[i] = APIParameter{ID: p.ID, Attributes: apiFields(p.Attributes)}
	}
	return out
}

// APIValues translates a parameter-values map into wire format, in
// sorted key order so payloads are deterministic.
func APIValues(values map[string]string) []APIParameterValue {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]APIParameterValue, len(keys))
	for i, k := range keys {
		out[i] = APIParameterValue{ID: k, StringValue: values[k]}
	}
	return out
}

// FromAPI rebuilds a typed definition from wire-format fragments, as
// returned by the remote get-definition call.
func FromAPI(objects []APIObject, parameters []APIParameter) *Definition {
	def := &Definition{}
	for _, o := range objects {
		def.Objects = append(def.Objects, Object{
			ID:     o.ID,
			Name:   o.Name,
			Fields: modelFields(o.Fields),
		})
	}
	for _, p := range parameters {
		def.Parameters = append(def.Parameters, Parameter{
			ID:         p.ID,
			Attributes: modelFields(p.Attributes),
		})
	}
	return def
}

func apiFields(fields []Field) []APIField {
	out := make([]APIField, len(fields))
	for i, f := range fields {
		out[i] = APIField{Key: f.Key, StringValue: f.StringValue, RefValue: f.RefValue}
	}
	return out
}

func modelFields(fields []APIField) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Key: f.Key, StringValue: f.StringValue, RefValue: f.RefValue}
	}
	return out
}
