package caster

import "encoding/json"

// Caster converts typed values to and from their stored byte form.
type Caster[T any] interface {
	From([]byte) (T, error)
	To(T) ([]byte, error)
}

type JSONCaster[T any] struct{}

func (jc JSONCaster[T]) From(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

func (jc JSONCaster[T]) To(v T) ([]byte, error) {
	return json.Marshal(v)
}
