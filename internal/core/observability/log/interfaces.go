package log

import "time"

// Level is the logging severity used across the engine.
type Level int8

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

// FieldType discriminates the payload stored in a Field.
type FieldType uint8

const (
	AnyType FieldType = iota
	StringType
	IntType
	Uint32Type
	Uint64Type
	Float64Type
	BoolType
	DurationType
	ErrorType
)

// Field is a structured logging key/value pair.
type Field struct {
	Key   string
	Type  FieldType
	Value any
}

func String(key, value string) Field     { return Field{Key: key, Type: StringType, Value: value} }
func Int(key string, value int) Field    { return Field{Key: key, Type: IntType, Value: value} }
func Uint32(key string, v uint32) Field  { return Field{Key: key, Type: Uint32Type, Value: v} }
func Uint64(key string, v uint64) Field  { return Field{Key: key, Type: Uint64Type, Value: v} }
func Float64(key string, v float64) Field {
	return Field{Key: key, Type: Float64Type, Value: v}
}
func Bool(key string, v bool) Field { return Field{Key: key, Type: BoolType, Value: v} }
func Duration(key string, v time.Duration) Field {
	return Field{Key: key, Type: DurationType, Value: v}
}
func Err(err error) Field          { return Field{Key: "error", Type: ErrorType, Value: err} }
func Any(key string, v any) Field  { return Field{Key: key, Type: AnyType, Value: v} }

// Log is the minimal structured logger surface the engine depends on.
type Log interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Log
}
