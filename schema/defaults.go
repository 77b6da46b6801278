package schema

import "reflect"

// Defaulter is implemented by entity types whose default instance differs
// from the Go zero value. Defaults is called on a pointer to a zero value.
//
//	func (i *Item) Defaults() {
//		i.Quantity = 1
//		i.Published = true
//	}
type Defaulter interface {
	Defaults()
}

// NewDefault returns a pointer to a default instance of t: the zero value,
// with Defaults applied when *t implements Defaulter.
func NewDefault(t reflect.Type) reflect.Value {
	v := reflect.New(indirect(t))
	if d, ok := v.Interface().(Defaulter); ok {
		d.Defaults()
	}
	return v
}
