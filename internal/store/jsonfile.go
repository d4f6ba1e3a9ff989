package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// errCorrupt marks a file whose content is not valid JSON.
var errCorrupt = errors.New("corrupt json document")

func isCorrupt(err error) bool { return errors.Is(err, errCorrupt) }

// readDocument loads path as a JSON document. A missing or blank file yields
// an empty result and no error.
func readDocument(path string) (gjson.Result, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return gjson.Result{}, nil
	}
	if err != nil {
		return gjson.Result{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%w: %s", errCorrupt, path)
	}
	return gjson.ParseBytes(data), nil
}

// rows returns the object elements of doc[key]. Non-object documents, missing
// keys and non-array values yield nothing.
func rows(doc gjson.Result, key string) []gjson.Result {
	if !doc.IsObject() {
		return nil
	}
	list := doc.Get(key)
	if !list.IsArray() {
		return nil
	}
	var out []gjson.Result
	for _, row := range list.Array() {
		if row.IsObject() {
			out = append(out, row)
		}
	}
	return out
}

// hasStrings reports whether every key of row holds a string, non-empty when
// nonEmpty is set.
func hasStrings(row gjson.Result, nonEmpty bool, keys ...string) bool {
	for _, key := range keys {
		v := row.Get(key)
		if v.Type != gjson.String {
			return false
		}
		if nonEmpty && v.Str == "" {
			return false
		}
	}
	return true
}

// writeDocument writes v as indented UTF-8 JSON without HTML escaping.
func writeDocument(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
