package reflectx

import (
	"reflect"
	"sort"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ErrorType is the reflect.Type of the built-in error interface.
func ErrorType() reflect.Type {
	return errorType
}

// Methods returns the sorted names of the method set of t. Only exported
// methods are visible to reflection, promoted ones included.
func Methods(t reflect.Type) []string {
	names := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		names = append(names, t.Method(i).Name)
	}

	sort.Strings(names)

	return names
}

// ReturnsError reports whether the last result of the func type ft is error.
func ReturnsError(ft reflect.Type) bool {
	n := ft.NumOut()
	if n == 0 {
		return false
	}

	return ft.Out(n-1) == errorType
}

// Params returns the declared parameter types of the func type ft, skipping
// the first skip of them (a method expression's receiver, for instance).
func Params(ft reflect.Type, skip int) []reflect.Type {
	if ft.NumIn() <= skip {
		return nil
	}

	in := make([]reflect.Type, 0, ft.NumIn()-skip)
	for i := skip; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}

	return in
}
