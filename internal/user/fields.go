package user

import (
	"encoding/json"
	"strconv"

	dErrors "kesher/pkg/domain-errors"
)

// ValueKind tags the variant held by a FieldValue.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindInt    ValueKind = "int"
	KindBool   ValueKind = "bool"
	KindEnum   ValueKind = "enum"
)

// FieldValue is a tagged value variant for a single profile field change.
// Values are validated against the field schema at parse time, so holding one
// implies the field name existed and the value had the right shape.
type FieldValue struct {
	Kind ValueKind
	Str  string
	Int  int
	Bool bool
}

// MarshalJSON writes the bare value; the kind is recoverable from the schema.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return []byte(strconv.Itoa(v.Int)), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.Bool)), nil
	default:
		return json.Marshal(v.Str)
	}
}

type fieldSpec struct {
	Kind ValueKind
	Enum []string
}

// schema is the single source of truth for editable profile fields. Unknown
// field names are rejected at the boundary.
var schema = map[string]fieldSpec{
	"first_name":          {Kind: KindString},
	"last_name":           {Kind: KindString},
	"email":               {Kind: KindString},
	"phone":               {Kind: KindString},
	"age":                 {Kind: KindInt},
	"gender":              {Kind: KindEnum, Enum: []string{"male", "female"}},
	"status":              {Kind: KindEnum, Enum: []string{"single", "divorced", "widowed"}},
	"has_children":        {Kind: KindBool},
	"children_count":      {Kind: KindInt},
	"family_background":   {Kind: KindString},
	"heritage_sector":     {Kind: KindString},
	"height":              {Kind: KindInt},
	"city":                {Kind: KindString},
	"occupation":          {Kind: KindString},
	"about_me":            {Kind: KindString},
	"references":          {Kind: KindString},
	"contact_person_type": {Kind: KindEnum, Enum: []string{"self", "parent", "shadchan"}},
	"contact_name":        {Kind: KindString},
	"contact_phone":       {Kind: KindString},
}

// sensitiveFields require moderator review before an edit takes effect.
var sensitiveFields = map[string]bool{
	"age":               true,
	"gender":            true,
	"status":            true,
	"has_children":      true,
	"children_count":    true,
	"family_background": true,
	"heritage_sector":   true,
	"height":            true,
}

// IsSensitiveField reports whether a single field is in the fixed sensitive set.
func IsSensitiveField(name string) bool {
	return sensitiveFields[name]
}

// IsSensitiveChange reports whether any changed field is sensitive.
func IsSensitiveChange(changes map[string]FieldValue) bool {
	for name := range changes {
		if sensitiveFields[name] {
			return true
		}
	}
	return false
}

// ParseChanges validates a raw field→value mapping against the schema and
// returns the typed change set.
//
// Errors: CodeInvalidInput for unknown field names, value shape mismatches,
// or enum values outside the allowed set; CodeBadRequest when the mapping is
// empty.
func ParseChanges(raw map[string]json.RawMessage) (map[string]FieldValue, error) {
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "changes must not be empty")
	}

	changes := make(map[string]FieldValue, len(raw))
	for name, rawValue := range raw {
		spec, ok := schema[name]
		if !ok {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown field: "+name)
		}
		value, err := parseValue(name, spec, rawValue)
		if err != nil {
			return nil, err
		}
		changes[name] = value
	}
	return changes, nil
}

func parseValue(name string, spec fieldSpec, raw json.RawMessage) (FieldValue, error) {
	switch spec.Kind {
	case KindInt:
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return FieldValue{}, dErrors.New(dErrors.CodeInvalidInput, "field "+name+" must be an integer")
		}
		if n < 0 {
			return FieldValue{}, dErrors.New(dErrors.CodeInvalidInput, "field "+name+" must not be negative")
		}
		return FieldValue{Kind: KindInt, Int: n}, nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return FieldValue{}, dErrors.New(dErrors.CodeInvalidInput, "field "+name+" must be a boolean")
		}
		return FieldValue{Kind: KindBool, Bool: b}, nil
	case KindEnum:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return FieldValue{}, dErrors.New(dErrors.CodeInvalidInput, "field "+name+" must be a string")
		}
		for _, allowed := range spec.Enum {
			if s == allowed {
				return FieldValue{Kind: KindEnum, Str: s}, nil
			}
		}
		return FieldValue{}, dErrors.New(dErrors.CodeInvalidInput, "field "+name+" has an unsupported value")
	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return FieldValue{}, dErrors.New(dErrors.CodeInvalidInput, "field "+name+" must be a string")
		}
		return FieldValue{Kind: KindString, Str: s}, nil
	}
}

// ApplyChanges merges a validated change set into the record field-by-field.
// Fields not present in the change set are untouched (last-writer-wins per
// field).
func (u *User) ApplyChanges(changes map[string]FieldValue) {
	for name, v := range changes {
		switch name {
		case "first_name":
			u.FirstName = v.Str
		case "last_name":
			u.LastName = v.Str
		case "email":
			u.Email = v.Str
		case "phone":
			u.Phone = v.Str
		case "age":
			u.Age = v.Int
		case "gender":
			u.Gender = v.Str
		case "status":
			u.MaritalStatus = v.Str
		case "has_children":
			u.HasChildren = v.Bool
		case "children_count":
			u.ChildrenCount = v.Int
		case "family_background":
			u.FamilyBackground = v.Str
		case "heritage_sector":
			u.HeritageSector = v.Str
		case "height":
			u.HeightCM = v.Int
		case "city":
			u.City = v.Str
		case "occupation":
			u.Occupation = v.Str
		case "about_me":
			u.AboutMe = v.Str
		case "references":
			u.References = v.Str
		case "contact_person_type":
			u.ContactPersonType = v.Str
		case "contact_name":
			u.ContactName = v.Str
		case "contact_phone":
			u.ContactPhone = v.Str
		}
	}
}
