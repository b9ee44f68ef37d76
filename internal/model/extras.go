package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// extras holds the parts of a decoded document that no model type declares:
// whole top-level entries, and record fields keyed by collection and record id.
// They are written back unchanged so a file from another schema revision
// survives a load and save by this one.
type extras struct {
	collections map[string]json.RawMessage
	fields      map[string]map[string]map[string]json.RawMessage
}

// recordFields maps each collection to the JSON field names of its record type.
var recordFields = map[string]map[string]bool{
	CollectionUsers:                   jsonFields[User](),
	CollectionSessions:                jsonFields[Session](),
	CollectionOrganizations:           jsonFields[Organization](),
	CollectionOrganizationMembers:     jsonFields[OrganizationMember](),
	CollectionOrganizationInvitations: jsonFields[OrganizationInvitation](),
	CollectionProjects:                jsonFields[Project](),
	CollectionProjectMembers:          jsonFields[ProjectMember](),
	CollectionProjectGuestLinks:       jsonFields[ProjectGuestLink](),
	CollectionTools:                   jsonFields[Tool](),
	CollectionAssets:                  jsonFields[Asset](),
	CollectionComponents:              jsonFields[Component](),
	CollectionFailureModes:            jsonFields[FailureMode](),
	CollectionCauses:                  jsonFields[Cause](),
	CollectionEffects:                 jsonFields[Effect](),
	CollectionControls:                jsonFields[Control](),
	CollectionActions:                 jsonFields[Action](),
}

func jsonFields[T any]() map[string]bool {
	t := reflect.TypeFor[T]()
	fields := make(map[string]bool, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			fields[name] = true
		}
	}
	return fields
}

// documentFields has Document's layout without its JSON methods.
type documentFields Document

// UnmarshalJSON decodes the modeled collections and keeps everything else.
func (d *Document) UnmarshalJSON(data []byte) error {
	var typed documentFields
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	*d = Document(typed)

	x := &extras{}
	for key, value := range top {
		known, ok := recordFields[key]
		if !ok {
			x.addCollection(key, value)
			continue
		}
		var records []map[string]json.RawMessage
		if err := json.Unmarshal(value, &records); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		for _, rec := range records {
			id := recordID(rec)
			if id == "" {
				continue
			}
			for name, v := range rec {
				if !known[name] {
					x.addField(key, id, name, v)
				}
			}
		}
	}
	if len(x.collections) > 0 || len(x.fields) > 0 {
		d.extra = x
	}
	return nil
}

// MarshalJSON encodes the modeled collections in declaration order, followed
// by any unmodeled entries kept from decoding.
func (d Document) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(documentFields(d))
	if err != nil || d.extra == nil {
		return data, err
	}
	return d.extra.merge(data)
}

// Unmodeled returns the names of top-level entries the model does not
// declare, sorted.
func (d *Document) Unmodeled() []string {
	if d.extra == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(d.extra.collections))
}

func (x *extras) addCollection(name string, value json.RawMessage) {
	if x.collections == nil {
		x.collections = make(map[string]json.RawMessage)
	}
	x.collections[name] = value
}

func (x *extras) addField(collection, id, name string, value json.RawMessage) {
	if x.fields == nil {
		x.fields = make(map[string]map[string]map[string]json.RawMessage)
	}
	byID := x.fields[collection]
	if byID == nil {
		byID = make(map[string]map[string]json.RawMessage)
		x.fields[collection] = byID
	}
	if byID[id] == nil {
		byID[id] = make(map[string]json.RawMessage)
	}
	byID[id][name] = value
}

func (x *extras) merge(data []byte) ([]byte, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value json.RawMessage) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(key)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}

	for _, name := range Collections {
		value := top[name]
		if byID := x.fields[name]; len(byID) > 0 {
			merged, err := mergeRecords(value, byID)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			value = merged
		}
		write(name, value)
	}
	for _, name := range slices.Sorted(maps.Keys(x.collections)) {
		write(name, x.collections[name])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// mergeRecords adds kept fields back to the records still present. Records
// without kept fields are left byte for byte.
func mergeRecords(value json.RawMessage, byID map[string]map[string]json.RawMessage) (json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(value, &records); err != nil {
		return nil, err
	}
	for i, raw := range records {
		var rec map[string]json.RawMessage
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		kept := byID[recordID(rec)]
		if len(kept) == 0 {
			continue
		}
		for name, v := range kept {
			if _, ok := rec[name]; !ok {
				rec[name] = v
			}
		}
		merged, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		records[i] = merged
	}
	return json.Marshal(records)
}

func recordID(rec map[string]json.RawMessage) string {
	var id string
	if raw, ok := rec["id"]; ok {
		_ = json.Unmarshal(raw, &id)
	}
	return id
}
