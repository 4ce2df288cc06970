// Copyright 2022 Peleiden
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package datastorage persists flat structs to disk. Fields that have a
// natural JSON representation go to a human-readable <name>.json, while
// binary payloads go to a compressed <name>.bin sidecar. The two files
// together restore the struct exactly.
package datastorage

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	jsoniter "github.com/json-iterator/go"
	"github.com/pierrec/lz4"
	"go.uber.org/multierr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrNotStruct     = errors.New("datastorage: value must be a struct")
	ErrNotPointer    = errors.New("datastorage: load target must be a non-nil struct pointer")
	ErrNoFiles       = errors.New("datastorage: no stored files found")
	ErrUnstorable    = errors.New("datastorage: field cannot be stored")
	ErrUnknownField  = errors.New("datastorage: stored field not present in struct")
	ErrMissingBinary = errors.New("datastorage: binary sidecar missing stored field")
)

const (
	jsonExt = ".json"
	binExt  = ".bin"
	tagName = "storage"
)

// Save writes the exported fields of v under dir. JSON-representable fields
// go to <name>.json and fields tagged `storage:"binary"` go to an
// lz4-compressed gob sidecar <name>.bin. Either file is omitted when it
// would hold no fields. An empty name defaults to the struct type name.
func Save(v any, dir, name string) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return ErrNotStruct
	}
	if name == "" {
		name = rv.Type().Name()
	}

	jsonFields := make(map[string]any)
	binFields := make(map[string][]byte)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := rv.Field(i)
		switch {
		case f.Tag.Get(tagName) == "binary":
			buf, err := encodeField(fv)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrUnstorable, f.Name, err)
			}
			binFields[f.Name] = buf
		case storableAsJSON(f.Type):
			jsonFields[f.Name] = fv.Interface()
		default:
			return fmt.Errorf("%w: %s has type %s", ErrUnstorable, f.Name, f.Type)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if len(jsonFields) > 0 {
		data, err := json.MarshalIndent(jsonFields, "", "    ")
		if err != nil {
			return err
		}
		if err := writeDurable(filepath.Join(dir, name+jsonExt), data); err != nil {
			return err
		}
	}
	if len(binFields) > 0 {
		data, err := encodeSidecar(binFields)
		if err != nil {
			return err
		}
		if err := writeDurable(filepath.Join(dir, name+binExt), data); err != nil {
			return err
		}
	}
	return nil
}

// Load restores a struct previously written by Save into ptr. It is an
// error when neither file exists, but a single missing file is fine as long
// as it held no fields. Stored fields unknown to the struct are rejected,
// and every field tagged `storage:"binary"` must be present in the sidecar.
func Load(ptr any, dir, name string) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotPointer
	}
	elem := rv.Elem()
	if name == "" {
		name = elem.Type().Name()
	}

	jsonData, jsonErr := os.ReadFile(filepath.Join(dir, name+jsonExt))
	if jsonErr != nil && !os.IsNotExist(jsonErr) {
		return jsonErr
	}
	binData, binErr := os.ReadFile(filepath.Join(dir, name+binExt))
	if binErr != nil && !os.IsNotExist(binErr) {
		return binErr
	}
	if jsonErr != nil && binErr != nil {
		return fmt.Errorf("%w: %s in %s", ErrNoFiles, name, dir)
	}

	if jsonErr == nil {
		var fields map[string]jsoniter.RawMessage
		if err := json.Unmarshal(jsonData, &fields); err != nil {
			return err
		}
		for fieldName, raw := range fields {
			fv, err := fieldByName(elem, fieldName)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(raw, fv.Addr().Interface()); err != nil {
				return fmt.Errorf("datastorage: field %s: %w", fieldName, err)
			}
		}
	}

	restored := make(map[string]struct{})
	if binErr == nil {
		fields, err := decodeSidecar(binData)
		if err != nil {
			return err
		}
		for fieldName, buf := range fields {
			fv, err := fieldByName(elem, fieldName)
			if err != nil {
				return err
			}
			if err := decodeField(buf, fv); err != nil {
				return fmt.Errorf("datastorage: field %s: %w", fieldName, err)
			}
			restored[fieldName] = struct{}{}
		}
	}
	// Tagged fields only ever live in the sidecar, so each one must have
	// been restored from it.
	et := elem.Type()
	for i := 0; i < et.NumField(); i++ {
		f := et.Field(i)
		if !f.IsExported() || f.Tag.Get(tagName) != "binary" {
			continue
		}
		if _, ok := restored[f.Name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingBinary, f.Name)
		}
	}
	return nil
}

func fieldByName(elem reflect.Value, name string) (reflect.Value, error) {
	f, ok := elem.Type().FieldByName(name)
	if !ok || !f.IsExported() || len(f.Index) != 1 {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return elem.Field(f.Index[0]), nil
}

// storableAsJSON rejects types that json-iterator cannot round-trip.
func storableAsJSON(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return false
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return storableAsJSON(t.Elem())
	case reflect.Map:
		return storableAsJSON(t.Key()) && storableAsJSON(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() && !storableAsJSON(f.Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// encodeField gobs a single field value, so the sidecar never needs
// interface type registration.
func encodeField(fv reflect.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).EncodeValue(fv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeField(data []byte, fv reflect.Value) error {
	return gob.NewDecoder(bytes.NewReader(data)).DecodeValue(fv)
}

func encodeSidecar(fields map[string][]byte) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(fields); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	zw := lz4.NewWriter(&out)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeSidecar(data []byte) (map[string][]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(data))
	var fields map[string][]byte
	if err := gob.NewDecoder(zr).Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// writeDurable writes the file and syncs it, so a crash right after Save
// cannot leave a torn state.
func writeDurable(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
