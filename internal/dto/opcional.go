package dto

import (
	"bytes"
	"encoding/json"
)

// Opcional carries a patch field together with its presence. A key absent
// from the JSON body leaves Set=false; an explicit null sets Set=true and
// Nulo=true, which is how nullable columns are cleared.
type Opcional[T any] struct {
	Set   bool
	Nulo  bool
	Valor T
}

// Con builds a present value, for callers that patch programmatically.
func Con[T any](v T) Opcional[T] { return Opcional[T]{Set: true, Valor: v} }

func (o *Opcional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Nulo = true
		var zero T
		o.Valor = zero
		return nil
	}
	return json.Unmarshal(b, &o.Valor)
}

func (o Opcional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Nulo {
		return []byte("null"), nil
	}
	return json.Marshal(o.Valor)
}
