// Package permissions applies single-field permission changes by wire key.
//
// Each permission set type has a Table built once at init: wire key →
// typed getter/setter. Patch looks the key up, coerces the raw value to the
// field's kind and assigns it; nothing is touched on failure.
package permissions

import (
	"fmt"
	"sort"
	"time"
)

// Kind is the declared type of a permission field.
type Kind int

const (
	KindBool Kind = iota
	KindString
	KindInt32
	KindUint32
	KindDuration
	KindRune
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindDuration:
		return "duration"
	case KindRune:
		return "rune"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field describes one addressable field of a permission set S.
type Field[S any] struct {
	Key  string
	Kind Kind
	get  func(*S) any
	set  func(*S, any) error
}

// Table maps wire keys to fields of S.
type Table[S any] struct {
	name   string
	fields map[string]Field[S]
	keys   []string
}

func newTable[S any](name string, fields ...Field[S]) *Table[S] {
	t := &Table[S]{
		name:   name,
		fields: make(map[string]Field[S], len(fields)),
		keys:   make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		if _, dup := t.fields[f.Key]; dup {
			panic("permissions: duplicate field " + name + "." + f.Key)
		}
		t.fields[f.Key] = f
		t.keys = append(t.keys, f.Key)
	}
	sort.Strings(t.keys)
	return t
}

// Name returns the permission set name, used in log lines.
func (t *Table[S]) Name() string { return t.name }

// Keys returns all wire keys in sorted order.
func (t *Table[S]) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Lookup returns the field for key.
func (t *Table[S]) Lookup(key string) (Field[S], bool) {
	f, ok := t.fields[key]
	return f, ok
}

// Get returns the current value of key on set.
func (t *Table[S]) Get(set *S, key string) (any, error) {
	f, ok := t.fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, t.name, key)
	}
	return f.get(set), nil
}

// Patch assigns value to the field named key, coercing it to the field's
// declared kind. On any error the set is left unmodified. Patch never panics.
func (t *Table[S]) Patch(set *S, key string, value any) (err error) {
	f, ok := t.fields[key]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, t.name, key)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s.%s: %v", ErrConvert, t.name, key, r)
		}
	}()
	if err := f.set(set, value); err != nil {
		return fmt.Errorf("%s.%s: %w", t.name, key, err)
	}
	return nil
}

// Diff returns the keys whose values differ between a and b, sorted.
func (t *Table[S]) Diff(a, b *S) []string {
	var changed []string
	for _, key := range t.keys {
		f := t.fields[key]
		if f.get(a) != f.get(b) {
			changed = append(changed, key)
		}
	}
	return changed
}

func boolField[S any](key string, ptr func(*S) *bool) Field[S] {
	return Field[S]{
		Key:  key,
		Kind: KindBool,
		get:  func(s *S) any { return *ptr(s) },
		set: func(s *S, v any) error {
			b, err := toBool(v)
			if err != nil {
				return err
			}
			*ptr(s) = b
			return nil
		},
	}
}

func stringField[S any](key string, ptr func(*S) *string) Field[S] {
	return Field[S]{
		Key:  key,
		Kind: KindString,
		get:  func(s *S) any { return *ptr(s) },
		set: func(s *S, v any) error {
			str, err := toString(v)
			if err != nil {
				return err
			}
			*ptr(s) = str
			return nil
		},
	}
}

func int32Field[S any](key string, ptr func(*S) *int32) Field[S] {
	return Field[S]{
		Key:  key,
		Kind: KindInt32,
		get:  func(s *S) any { return *ptr(s) },
		set: func(s *S, v any) error {
			n, err := toInt32(v)
			if err != nil {
				return err
			}
			*ptr(s) = n
			return nil
		},
	}
}

func uint32Field[S any](key string, ptr func(*S) *uint32) Field[S] {
	return Field[S]{
		Key:  key,
		Kind: KindUint32,
		get:  func(s *S) any { return *ptr(s) },
		set: func(s *S, v any) error {
			n, err := toUint32(v)
			if err != nil {
				return err
			}
			*ptr(s) = n
			return nil
		},
	}
}

func durationField[S any](key string, ptr func(*S) *time.Duration) Field[S] {
	return Field[S]{
		Key:  key,
		Kind: KindDuration,
		get:  func(s *S) any { return *ptr(s) },
		set: func(s *S, v any) error {
			d, err := toDuration(v)
			if err != nil {
				return err
			}
			*ptr(s) = d
			return nil
		},
	}
}

func runeField[S any](key string, ptr func(*S) *rune) Field[S] {
	return Field[S]{
		Key:  key,
		Kind: KindRune,
		get:  func(s *S) any { return *ptr(s) },
		set: func(s *S, v any) error {
			r, err := toRune(v)
			if err != nil {
				return err
			}
			*ptr(s) = r
			return nil
		},
	}
}
