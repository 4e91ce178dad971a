package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Fields of the job document this program does not know about are carried
// over to the manifest unchanged.

var (
	jobFields  = fieldNames(reflect.TypeFor[Job]())
	pageFields = fieldNames(reflect.TypeFor[PageConfig]())
)

func fieldNames(t reflect.Type) map[string]struct{} {
	names := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		names[name] = struct{}{}
	}
	return names
}

func unknownFields(raw map[string]json.RawMessage, known map[string]struct{}) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	for k, v := range raw {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

// collectUnknown remembers unknown fields of already decoded job document.
func (j *Job) collectUnknown(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	j.unknown = unknownFields(doc, jobFields)

	raw, ok := doc["pages"]
	if !ok {
		return nil
	}
	var pages []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &pages); err != nil {
		return err
	}
	for i, p := range pages {
		if i < len(j.Pages) && j.Pages[i] != nil {
			j.Pages[i].unknown = unknownFields(p, pageFields)
		}
	}
	return nil
}

// Unknown returns top level fields of the job document which are not part
// of Job.
func (j *Job) Unknown() map[string]json.RawMessage {
	return j.unknown
}

// MarshalJSON writes page configuration followed by its unknown fields.
func (p PageConfig) MarshalJSON() ([]byte, error) {
	type plain PageConfig
	data, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	return AppendFields(data, p.unknown)
}

// AppendFields adds fields to encoded JSON object. Fields object already has
// are skipped, the rest are appended in name order.
func AppendFields(obj []byte, fields map[string]json.RawMessage) ([]byte, error) {
	if len(fields) == 0 {
		return obj, nil
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(obj, &present); err != nil {
		return nil, fmt.Errorf("unable to merge fields: %w", err)
	}

	obj = bytes.TrimSpace(obj)
	out := slices.Clone(obj[:len(obj)-1])
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if _, ok := present[name]; ok {
			continue
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, fmt.Errorf("unable to merge fields: %w", err)
		}
		if len(out) > 1 {
			out = append(out, ',')
		}
		out = append(out, key...)
		out = append(out, ':')
		out = append(out, fields[name]...)
	}
	return append(out, '}'), nil
}
