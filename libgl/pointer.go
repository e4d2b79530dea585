package libgl

import (
	"fmt"
	"reflect"
	"unsafe"
)

func Pointer(data any) unsafe.Pointer {
	if data == nil {
		return unsafe.Pointer(nil)
	}
	var addr unsafe.Pointer
	v := reflect.ValueOf(data)
	switch v.Type().Kind() {
	case reflect.Ptr:
		e := v.Elem()
		addr = unsafe.Pointer(e.UnsafeAddr())
	case reflect.UnsafePointer:
		addr = data.(unsafe.Pointer)
	case reflect.Uintptr:
		addr = unsafe.Pointer(data.(uintptr))
	case reflect.Slice:
		addr = unsafe.Pointer(v.Index(0).UnsafeAddr())
	default:
		panic(fmt.Errorf("unsupported type %s; must be a slice, uintptr or pointer to a value", v.Type()))
	}
	return addr
}

// PointerOffset returns the address of the element at index of a slice
func PointerOffset(data any, index int) unsafe.Pointer {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		panic(fmt.Errorf("unsupported type %s; must be a slice", v.Type()))
	}
	return unsafe.Pointer(v.Index(index).UnsafeAddr())
}

// byteSize is the size of the memory a slice or pointer refers to
func byteSize(data any) int {
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Slice:
		return v.Len() * int(v.Type().Elem().Size())
	case reflect.Ptr:
		return int(v.Type().Elem().Size())
	}
	panic(fmt.Errorf("unsupported type %s; must be a slice or pointer to a value", v.Type()))
}
