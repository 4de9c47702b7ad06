package module

import (
	"fmt"
	"reflect"
)

// PortsOf finds a T in m.Ports(): either the port set itself or one of its
// exported fields. Pointer port sets are followed
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return zero, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return zero, false
	}
	for i := range rv.NumField() {
		f := rv.Field(i)
		if !f.CanInterface() {
			continue
		}
		if v, ok := f.Interface().(T); ok {
			return v, true
		}
	}
	return zero, false
}

// MustPortsOf is PortsOf for wiring code; a missing port is a programming error
func MustPortsOf[T any](m Module) T {
	v, ok := PortsOf[T](m)
	if !ok {
		panic(fmt.Sprintf("module: %s has no %s port", m.Name(), reflect.TypeFor[T]()))
	}
	return v
}
