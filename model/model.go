// Package model holds the records relayed between the entity caches and the
// backend: definitions (schemas) and their instances.
package model

import (
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DataType is the declared type of a definition field.
type DataType int

const (
	Text DataType = iota
	Number
	Date
	Boolean
	EntityReference
)

func (d DataType) String() string {
	switch d {
	case Text:
		return "text"
	case Number:
		return "number"
	case Date:
		return "date"
	case Boolean:
		return "boolean"
	case EntityReference:
		return "reference"
	default:
		return "unknown"
	}
}

// ParseDataType accepts the names printed by DataType.String.
func ParseDataType(s string) (DataType, bool) {
	for d := Text; d <= EntityReference; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, true
		}
	}
	return 0, false
}

// Field describes one field of a Definition.
type Field struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	DataType        DataType   `json:"dataType"`
	IsRequired      bool       `json:"isRequired"`
	IsList          bool       `json:"isList"`
	DefinitionID    uuid.UUID  `json:"entityDefinitionId"`
	ReferenceTarget *uuid.UUID `json:"referenceTargetEntityDefinitionId,omitempty"`
}

// Definition is an entity schema. Name is its only mutable attribute.
type Definition struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Fields []Field   `json:"fields"`
}

// Clone returns a copy that shares no memory with d.
func (d Definition) Clone() Definition {
	out := d
	out.Fields = slices.Clone(d.Fields)
	for i, f := range out.Fields {
		if f.ReferenceTarget != nil {
			t := *f.ReferenceTarget
			out.Fields[i].ReferenceTarget = &t
		}
	}
	return out
}

// Data is the free-form field map of an instance.
type Data map[string]any

// WithoutNil returns a copy of d without the keys whose value is nil.
func (d Data) WithoutNil() Data {
	out := make(Data, len(d))
	for k, v := range d {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// Instance is a record of a Definition; DefinitionID is its group.
type Instance struct {
	ID             uuid.UUID `json:"id"`
	DefinitionID   uuid.UUID `json:"entityDefinitionId"`
	DefinitionName string    `json:"entityDefinitionName,omitempty"`
	Data           Data      `json:"data"`
}

// Clone copies the top level of the data map. Nested values are shared;
// callers treat them as read-only.
func (i Instance) Clone() Instance {
	out := i
	out.Data = maps.Clone(i.Data)
	return out
}

// NewField is the write shape of a Field.
type NewField struct {
	Name            string     `json:"name" validate:"required,min=2,max=100"`
	DataType        DataType   `json:"dataType" validate:"gte=0,lte=4"`
	IsRequired      bool       `json:"isRequired"`
	IsList          bool       `json:"isList"`
	ReferenceTarget *uuid.UUID `json:"referenceTargetEntityDefinitionId,omitempty"`
}

// NewDefinition is the write shape of a Definition.
type NewDefinition struct {
	Name   string     `json:"name" validate:"required,min=2,max=100"`
	Fields []NewField `json:"fields" validate:"dive"`
}

// DefinitionPatch carries the mutable attributes of a Definition.
type DefinitionPatch struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// InstancePatch replaces an instance's data. Nil values clear a field.
type InstancePatch struct {
	Data Data `json:"data"`
}
