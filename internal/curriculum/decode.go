package curriculum

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/pavelanni/readingprep/internal/model"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument means a module file failed schema validation or decoding.
var ErrInvalidDocument = errors.New("invalid module document")

//go:embed schema.json
var schemaJSON []byte

var moduleSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// documentExt reports whether name is a module document by extension.
func documentExt(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// DecodeDocument validates one JSON or YAML module document against the
// module schema and decodes it. name picks the format and labels errors.
func DecodeDocument(name string, data []byte) (model.Module, error) {
	raw := data
	if ext := strings.ToLower(path.Ext(name)); ext == ".yaml" || ext == ".yml" {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return model.Module{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidDocument, err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return model.Module{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidDocument, err)
		}
		raw = b
	}

	schema, err := moduleSchema()
	if err != nil {
		return model.Module{}, fmt.Errorf("load module schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return model.Module{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidDocument, err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			reasons = append(reasons, re.String())
		}
		return model.Module{}, fmt.Errorf("%s: %w: %s", name, ErrInvalidDocument, strings.Join(reasons, "; "))
	}

	var m model.Module
	if err := json.Unmarshal(raw, &m); err != nil {
		return model.Module{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidDocument, err)
	}
	return m, nil
}

// readModules decodes every module document under fsys. Invalid documents
// are collected so one run reports all of them.
func readModules(fsys fs.FS) ([]model.Module, error) {
	var (
		mods []model.Module
		errs []error
	)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !documentExt(p) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		m, err := DecodeDocument(p, data)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		mods = append(mods, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return mods, nil
}
