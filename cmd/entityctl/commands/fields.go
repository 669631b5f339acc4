package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/entitycache/model"
)

// parseField reads "Name:type[:required][:list][:ref=<uuid>]".
func parseField(s string) (model.NewField, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return model.NewField{}, fmt.Errorf("field %q: want Name:type[:required][:list][:ref=<id>]", s)
	}
	dt, ok := model.ParseDataType(strings.TrimSpace(parts[1]))
	if !ok {
		return model.NewField{}, fmt.Errorf("field %q: unknown type %q", s, parts[1])
	}
	f := model.NewField{Name: strings.TrimSpace(parts[0]), DataType: dt}
	for _, p := range parts[2:] {
		p = strings.TrimSpace(p)
		switch {
		case p == "required":
			f.IsRequired = true
		case p == "list":
			f.IsList = true
		case strings.HasPrefix(p, "ref="):
			id, err := uuid.Parse(strings.TrimPrefix(p, "ref="))
			if err != nil {
				return model.NewField{}, fmt.Errorf("field %q: %w", s, err)
			}
			f.ReferenceTarget = &id
		default:
			return model.NewField{}, fmt.Errorf("field %q: unknown flag %q", s, p)
		}
	}
	return f, nil
}

// parseData decodes a JSON object of field values.
func parseData(s string) (model.Data, error) {
	var d model.Data
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("data: want a JSON object")
	}
	return d, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
