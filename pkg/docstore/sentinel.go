package docstore

type deleteField struct{}

type serverTimestamp struct{}

// DeleteField removes the field it is assigned to in Update and Merge.
var DeleteField interface{} = deleteField{}

// ServerTimestamp is replaced by the store's clock at write time.
var ServerTimestamp interface{} = serverTimestamp{}

// ArrayUnionValue adds elements not already present.
type ArrayUnionValue struct {
	Elements []interface{}
}

// ArrayRemoveValue removes every occurrence of the elements.
type ArrayRemoveValue struct {
	Elements []interface{}
}

// ArrayUnion returns an array add transform.
func ArrayUnion(elements ...interface{}) ArrayUnionValue {
	return ArrayUnionValue{Elements: elements}
}

// ArrayRemove returns an array remove transform.
func ArrayRemove(elements ...interface{}) ArrayRemoveValue {
	return ArrayRemoveValue{Elements: elements}
}

// IsDeleteField reports whether v is the DeleteField sentinel.
func IsDeleteField(v interface{}) bool {
	_, ok := v.(deleteField)
	return ok
}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v interface{}) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

func isSentinel(v interface{}) bool {
	switch v.(type) {
	case deleteField, serverTimestamp, ArrayUnionValue, ArrayRemoveValue:
		return true
	}
	return false
}
