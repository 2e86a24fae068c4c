package tree

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// ParseObject decodes a JSON object into an Object, keeping keys in the
// order they were written.
func ParseObject(text string) (*Object, error) {
	iter := jsoniter.ParseString(jsoniter.ConfigDefault, text)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("parse object: expected a JSON object")
	}
	v := readValue(iter)
	if iter.Error != nil {
		return nil, fmt.Errorf("parse object: %w", iter.Error)
	}
	return v.AsObject(), nil
}

func readValue(iter *jsoniter.Iterator) Value {
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.NumberValue:
		return Number(iter.ReadFloat64())
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())
	case jsoniter.NilValue:
		iter.ReadNil()
		return Undefined
	case jsoniter.ArrayValue:
		var items []Value
		for iter.ReadArray() {
			items = append(items, readValue(iter))
		}
		return Array(items...)
	case jsoniter.ObjectValue:
		o := NewObject()
		for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
			o.Set(key, readValue(iter))
		}
		return ObjectValue(o)
	}
	iter.Skip()
	return Undefined
}

// MarshalObject encodes o as JSON in declaration order. Handles are
// written as null.
func MarshalObject(o *Object) []byte {
	stream := jsoniter.ConfigDefault.BorrowStream(nil)
	defer jsoniter.ConfigDefault.ReturnStream(stream)
	writeValue(stream, ObjectValue(o))
	return append([]byte(nil), stream.Buffer()...)
}

func writeValue(stream *jsoniter.Stream, v Value) {
	switch v.Kind() {
	case KindString:
		stream.WriteString(v.str)
	case KindNumber:
		stream.WriteFloat64(v.num)
	case KindBool:
		stream.WriteBool(v.flag)
	case KindArray:
		stream.WriteArrayStart()
		for i, e := range v.arr {
			if i > 0 {
				stream.WriteMore()
			}
			writeValue(stream, e)
		}
		stream.WriteArrayEnd()
	case KindObject:
		stream.WriteObjectStart()
		for i, k := range v.obj.Keys() {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(k)
			writeValue(stream, v.obj.Value(k))
		}
		stream.WriteObjectEnd()
	default:
		stream.WriteNil()
	}
}
