package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/fmea/internal/model"
)

// row is one stored record.
type row struct {
	collection string
	id         string
	position   int
	body       string
}

// splitDocument flattens doc into rows, one per record, in document order.
// Top-level entries the model does not declare become rows too when they are
// arrays of records with distinct ids; any other value is returned in meta,
// keyed by its name.
func splitDocument(doc *model.Document) (rows []row, meta map[string]string, err error) {
	doc.Backfill()
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal document: %w", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, nil, fmt.Errorf("split document: %w", err)
	}

	for _, name := range model.Collections {
		recs, err := splitRecords(name, top[name])
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, recs...)
	}

	meta = make(map[string]string)
	for _, name := range slices.Sorted(maps.Keys(top)) {
		if slices.Contains(model.Collections, name) {
			continue
		}
		if recs, err := splitRecords(name, top[name]); err == nil && len(recs) > 0 && distinctIDs(recs) {
			rows = append(rows, recs...)
			continue
		}
		value, err := compact(top[name])
		if err != nil {
			return nil, nil, fmt.Errorf("split %s: %w", name, err)
		}
		meta[name] = value
	}
	return rows, meta, nil
}

func splitRecords(name string, value json.RawMessage) ([]row, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(value, &records); err != nil {
		return nil, fmt.Errorf("split %s: %w", name, err)
	}
	rows := make([]row, 0, len(records))
	for i, raw := range records {
		var rec struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("split %s[%d]: %w", name, i, err)
		}
		body, err := compact(raw)
		if err != nil {
			return nil, fmt.Errorf("split %s[%d]: %w", name, i, err)
		}
		rows = append(rows, row{collection: name, id: rec.ID, position: i, body: body})
	}
	return rows, nil
}

func distinctIDs(rows []row) bool {
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.id == "" || seen[r.id] {
			return false
		}
		seen[r.id] = true
	}
	return true
}

// joinDocument rebuilds a document from rows ordered by collection and
// position, plus the meta entries saved beside them. Rows of collections the
// model does not know are carried in the document unchanged.
func joinDocument(rows []row, meta map[string]string) (*model.Document, error) {
	collections := make(map[string][]json.RawMessage, len(model.Collections))
	for _, name := range model.Collections {
		collections[name] = []json.RawMessage{}
	}
	for _, r := range rows {
		collections[r.collection] = append(collections[r.collection], json.RawMessage(r.body))
	}

	top := make(map[string]json.RawMessage, len(collections)+len(meta))
	for name, records := range collections {
		data, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("join %s: %w", name, err)
		}
		top[name] = data
	}
	for name, value := range meta {
		if _, ok := top[name]; !ok {
			top[name] = json.RawMessage(value)
		}
	}

	data, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("join document: %w", err)
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("join document: %w", err)
	}
	doc.Backfill()
	return &doc, nil
}

func compact(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
