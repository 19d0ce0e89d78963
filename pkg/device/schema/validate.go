package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator checks JSON payloads against JSON Schema documents. Compiled
// schemas are cached by their raw text.
type Validator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{
		cache: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks payload against schemaDoc. An empty or null schema accepts
// everything.
func (v *Validator) Validate(schemaDoc json.RawMessage, payload map[string]any) error {
	switch string(schemaDoc) {
	case "", "{}", "null":
		return nil
	}

	compiled, err := v.compile(schemaDoc)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return compiled.Validate(payload)
}

// ValidateCameraCreate checks a camera registration payload.
func (v *Validator) ValidateCameraCreate(payload map[string]any) error {
	return v.Validate(CameraCreateSchema, payload)
}

// ValidateCameraUpdate checks a camera patch payload.
func (v *Validator) ValidateCameraUpdate(payload map[string]any) error {
	return v.Validate(CameraUpdateSchema, payload)
}

func (v *Validator) compile(schemaDoc json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schemaDoc)

	v.mu.RLock()
	s, ok := v.cache[key]
	v.mu.RUnlock()
	if ok {
		return s, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.cache[key]; ok {
		return s, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDoc))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("camera.json", doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile("camera.json")
	if err != nil {
		return nil, err
	}

	v.cache[key] = compiled
	return compiled, nil
}
