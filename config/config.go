// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config implements hierarchical, profile-aware configuration
// loading: layered sources (files, environment variables, inline
// content) merged in registration order, an optional named profile
// layer merged on top with override precedence, JSON Schema and custom
// validation, and binding onto a typed struct.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"

	"github.com/rivaas-dev/corehttp/config/codec"
	"github.com/rivaas-dev/corehttp/config/source"
)

// Source loads one layer of raw configuration data.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Validator is implemented by binding targets that validate themselves
// after decoding and default application.
type Validator interface {
	Validate() error
}

// Option configures a Config at construction time.
type Option func(c *Config) error

// Config loads, merges, validates, and binds layered configuration
// data. It also tracks a named profile layer (WithProfile) that is
// merged on top of the base sources with override precedence,
// modeling a hierarchical "base + environment profile" configuration
// model.
type Config struct {
	values  *map[string]any
	sources []Source

	profiles       map[string][]Source
	activeProfile  string

	binding any
	tagName string

	mu                 sync.RWMutex
	jsonSchemaCompiled *jsonschema.Schema
	customValidators   []func(map[string]any) error

	decoderConfig *mapstructure.DecoderConfig
	decoderOnce   sync.Once
}

// New builds a Config from the given options, collecting every
// option's error via errors.Join rather than stopping at the first.
func New(options ...Option) (*Config, error) {
	c := &Config{
		values:   &map[string]any{},
		tagName:  "config",
		profiles: map[string][]Source{},
	}

	var errs error
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return c, errs
}

// MustNew panics if any option fails.
func MustNew(options ...Option) *Config {
	c, err := New(options...)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return c
}

// WithFile adds a file source, detecting its codec from the
// extension.
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		format, err := detectFormat(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}
		dec, err := codec.GetDecoder(format)
		if err != nil {
			return NewError("file-source", "get-decoder", err)
		}
		c.sources = append(c.sources, source.NewFile(path, dec))
		return nil
	}
}

// WithFileAs adds a file source with an explicit codec, for paths
// whose extension doesn't identify the format.
func WithFileAs(path string, codecType codec.Type) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		dec, err := codec.GetDecoder(codecType)
		if err != nil {
			return NewError("file-source", "get-decoder", err)
		}
		c.sources = append(c.sources, source.NewFile(path, dec))
		return nil
	}
}

// WithEnv adds an environment-variable source scoped to prefix.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewOSEnvVar(prefix))
		return nil
	}
}

// WithContent adds an in-memory content source.
func WithContent(data []byte, codecType codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.GetDecoder(codecType)
		if err != nil {
			return NewError("content-source", "get-decoder", err)
		}
		c.sources = append(c.sources, source.NewFileContent(data, dec))
		return nil
	}
}

// WithSource adds an arbitrary Source.
func WithSource(s Source) Option {
	return func(c *Config) error {
		if s == nil {
			return errors.New("config: source cannot be nil")
		}
		c.sources = append(c.sources, s)
		return nil
	}
}

// WithProfile registers name as a selectable profile layer built from
// opts: the sources given there for a profile other than the active
// one are never read, so a production secrets file can be registered
// without requiring it to exist in development.
func WithProfile(name string, opts ...Option) Option {
	return func(c *Config) error {
		pc := &Config{values: &map[string]any{}}
		for _, opt := range opts {
			if opt == nil {
				continue
			}
			if err := opt(pc); err != nil {
				return NewError("profile:"+name, "configure", err)
			}
		}
		c.profiles[name] = pc.sources
		return nil
	}
}

// WithActiveProfile selects which registered profile layer Load
// merges on top of the base sources, with override precedence: later
// layers win on a per-key basis, not whole-file replacement.
func WithActiveProfile(name string) Option {
	return func(c *Config) error {
		c.activeProfile = name
		return nil
	}
}

// WithBinding sets the struct Load decodes merged values into.
func WithBinding(v any) Option {
	return func(c *Config) error {
		if v == nil {
			return errors.New("config: binding target cannot be nil")
		}
		if reflect.TypeOf(v).Kind() != reflect.Ptr {
			return errors.New("config: binding target must be a pointer")
		}
		c.binding = v
		return nil
	}
}

// WithTag overrides the struct tag name used for binding (default
// "config").
func WithTag(tagName string) Option {
	return func(c *Config) error {
		if tagName == "" {
			return errors.New("config: tag name cannot be empty")
		}
		c.tagName = tagName
		return nil
	}
}

// WithJSONSchema compiles schema and validates every Load against it.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		compiler := jsonschema.NewCompiler()
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return err
		}
		const resourceName = "inline.json"
		if err := compiler.AddResource(resourceName, doc); err != nil {
			return err
		}
		compiled, err := compiler.Compile(resourceName)
		if err != nil {
			return err
		}
		c.jsonSchemaCompiled = compiled
		return nil
	}
}

// WithValidator adds a custom validation function run against the
// merged values map before binding.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		c.customValidators = append(c.customValidators, fn)
		return nil
	}
}

func normalizeMapKeys(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		lower := strings.ToLower(k)
		if nested, ok := v.(map[string]any); ok {
			out[lower] = normalizeMapKeys(nested)
		} else {
			out[lower] = v
		}
	}
	return out
}

func mergeSources(ctx context.Context, sources []Source, into map[string]any, label string) error {
	for i, src := range sources {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		data, err := src.Load(ctx)
		if err != nil {
			return NewError(fmt.Sprintf("%s[%d]", label, i), "load", err)
		}
		if data == nil {
			data = map[string]any{}
		}
		if err := mergo.Map(&into, normalizeMapKeys(data), mergo.WithOverride); err != nil {
			return NewError(fmt.Sprintf("%s[%d]", label, i), "merge", err)
		}
	}
	return nil
}

// Load reads every registered source in order, merges the active
// profile's sources on top with override precedence, validates, and
// (if a binding target was set) decodes the result onto it. Load is
// safe to call repeatedly; each call atomically replaces the values
// a concurrent Get sees.
func (c *Config) Load(ctx context.Context) error {
	if ctx == nil {
		return errors.New("config: context cannot be nil")
	}

	merged := map[string]any{}
	if err := mergeSources(ctx, c.sources, merged, "source"); err != nil {
		return err
	}

	if c.activeProfile != "" {
		profileSources, ok := c.profiles[c.activeProfile]
		if !ok {
			return NewError("profile", "select", fmt.Errorf("config: unknown profile %q", c.activeProfile))
		}
		if err := mergeSources(ctx, profileSources, merged, "profile:"+c.activeProfile); err != nil {
			return err
		}
	}

	if c.jsonSchemaCompiled != nil {
		if err := c.jsonSchemaCompiled.Validate(merged); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}

	for i, fn := range c.customValidators {
		if fn == nil {
			continue
		}
		if err := runValidator(fn, merged); err != nil {
			return NewError(fmt.Sprintf("custom-validator[%d]", i), "validate", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.binding != nil {
		if err := c.bindAndValidate(merged); err != nil {
			return NewError("binding", "validate", err)
		}
		if err := c.bind(&merged); err != nil {
			return NewError("binding", "bind", err)
		}
	}

	c.values = &merged
	return nil
}

func runValidator(fn func(map[string]any) error, values map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("config: validator panic: %v", r)
		}
	}()
	return fn(values)
}

// MustLoad panics if Load fails.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

func (c *Config) getDecoderConfig() *mapstructure.DecoderConfig {
	c.decoderOnce.Do(func() {
		tag := c.tagName
		if tag == "" {
			tag = "config"
		}
		c.decoderConfig = &mapstructure.DecoderConfig{
			TagName:          tag,
			Squash:           true,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.StringToTimeHookFunc(time.RFC3339),
			),
		}
	})
	return c.decoderConfig
}

func (c *Config) bind(values *map[string]any) error {
	cfg := c.getDecoderConfig()
	cfg.Result = c.binding
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return fmt.Errorf("config: new decoder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	return applyDefaults(c.binding)
}

func (c *Config) bindAndValidate(values map[string]any) error {
	bindingType := reflect.TypeOf(c.binding)
	if bindingType.Kind() == reflect.Ptr {
		bindingType = bindingType.Elem()
	}
	tmp := reflect.New(bindingType).Interface()

	cfg := c.getDecoderConfig()
	cfg.Result = tmp
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return fmt.Errorf("config: new decoder: %w", err)
	}
	if err := dec.Decode(&values); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	if err := applyDefaults(tmp); err != nil {
		return err
	}
	if v, ok := tmp.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// Values returns the current merged configuration map.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.values == nil {
		return map[string]any{}
	}
	return *c.values
}

func (c *Config) getValue(path string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.values == nil {
		return nil
	}
	current := *c.values
	normalized := strings.ToLower(path)

	if v, ok := current[normalized]; ok {
		return v
	}

	segments := strings.Split(normalized, ".")
	for i, seg := range segments {
		v, ok := current[seg]
		if !ok {
			return nil
		}
		if i == len(segments)-1 {
			return v
		}
		nested, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		current = nested
	}
	return nil
}

// Get returns the raw value at key, or nil if absent.
func (c *Config) Get(key string) any {
	if c == nil || key == "" {
		return nil
	}
	return c.getValue(key)
}

func (c *Config) String(key string) string   { return cast.ToString(c.Get(key)) }
func (c *Config) Int(key string) int         { return cast.ToInt(c.Get(key)) }
func (c *Config) Int64(key string) int64     { return cast.ToInt64(c.Get(key)) }
func (c *Config) Bool(key string) bool       { return cast.ToBool(c.Get(key)) }
func (c *Config) Float64(key string) float64 { return cast.ToFloat64(c.Get(key)) }

func (c *Config) Duration(key string) time.Duration { return cast.ToDuration(c.Get(key)) }
func (c *Config) Time(key string) time.Time         { return cast.ToTime(c.Get(key)) }

func (c *Config) StringSlice(key string) []string { return cast.ToStringSlice(c.Get(key)) }
func (c *Config) IntSlice(key string) []int       { return cast.ToIntSlice(c.Get(key)) }
func (c *Config) StringMap(key string) map[string]any { return cast.ToStringMap(c.Get(key)) }

func (c *Config) StringOr(key, def string) string {
	if v := c.Get(key); v != nil {
		return cast.ToString(v)
	}
	return def
}

func (c *Config) IntOr(key string, def int) int {
	if v := c.Get(key); v != nil {
		return cast.ToInt(v)
	}
	return def
}

func (c *Config) BoolOr(key string, def bool) bool {
	if v := c.Get(key); v != nil {
		return cast.ToBool(v)
	}
	return def
}

func (c *Config) DurationOr(key string, def time.Duration) time.Duration {
	if v := c.Get(key); v != nil {
		return cast.ToDuration(v)
	}
	return def
}

func (c *Config) TimeOr(key string, def time.Time) time.Time {
	if v := c.Get(key); v != nil {
		return cast.ToTime(v)
	}
	return def
}

func (c *Config) StringSliceOr(key string, def []string) []string {
	if v := c.Get(key); v != nil {
		return cast.ToStringSlice(v)
	}
	return def
}
