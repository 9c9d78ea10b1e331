package models

import (
	"bytes"
	"context"
	"encoding/json"
)

// Entity is any resource with a server-assigned integer id.
type Entity interface {
	EntityID() uint
}

// Ref is a related-resource field that may arrive either as a bare id
// or as the expanded object, depending on the endpoint. Callers that
// need the object must go through Resolve rather than assume one arm.
type Ref[T Entity] struct {
	ID    uint
	Value *T
}

// IDRef builds an unresolved reference.
func IDRef[T Entity](id uint) Ref[T] {
	return Ref[T]{ID: id}
}

// ExpandedRef builds a resolved reference.
func ExpandedRef[T Entity](value T) Ref[T] {
	return Ref[T]{ID: value.EntityID(), Value: &value}
}

// Expanded reports whether the full object is present.
func (r Ref[T]) Expanded() bool {
	return r.Value != nil
}

// Resolve returns the referenced object, fetching it when only the id
// is known. The fetched value is retained for later calls.
func (r *Ref[T]) Resolve(ctx context.Context, fetch func(context.Context, uint) (*T, error)) (*T, error) {
	if r.Value != nil {
		return r.Value, nil
	}
	value, err := fetch(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.ID = (*value).EntityID()
	r.Value = value
	return value, nil
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Value != nil {
		return json.Marshal(r.Value)
	}
	return json.Marshal(r.ID)
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*r = Ref[T]{}
		return nil
	}
	if data[0] == '{' {
		var value T
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		r.Value = &value
		r.ID = value.EntityID()
		return nil
	}
	return json.Unmarshal(data, &r.ID)
}
