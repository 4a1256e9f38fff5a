// Package config describes how the reflection engine is set up: logging,
// tracing and the access policy of the escalator.
//
// Configuration is read from YAML (JSON is accepted too, being a subset):
//
//	logging:
//	  level: debug
//	tracing:
//	  endpoint: localhost:4318
//	  service_name: billing
//	access:
//	  mode: permissive        # or "exported"
//	  allow_read_only_write: true
package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/anoideaopen/mirror/core/access"
	"github.com/anoideaopen/mirror/core/stringsx"
)

// Access modes.
const (
	ModePermissive = "permissive"
	ModeExported   = "exported"
)

const defaultServiceName = "mirror"

var ErrCfgBytesEmpty = errors.New("config bytes is empty")

// validation errors
var (
	ErrUnknownAccessMode = errors.New("unknown access mode")
	ErrServiceNameEmpty  = errors.New("'service_name' is empty while 'endpoint' is set")
)

type Config struct {
	Logging Logging `yaml:"logging"`
	Tracing Tracing `yaml:"tracing"`
	Access  Access  `yaml:"access"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Tracing struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

type Access struct {
	Mode string `yaml:"mode"`
	// AllowReadOnlyWrite lets escalation lift the read-only guard. Nil
	// means the default of the mode.
	AllowReadOnlyWrite *bool `yaml:"allow_read_only_write"`
}

// Default returns the configuration used when none is supplied.
func Default() *Config {
	return &Config{
		Tracing: Tracing{ServiceName: defaultServiceName},
		Access:  Access{Mode: ModePermissive},
	}
}

// FromBytes parses YAML or JSON encoded configuration on top of Default and
// validates it.
func FromBytes(cfgBytes []byte) (*Config, error) {
	if len(cfgBytes) == 0 {
		return nil, ErrCfgBytesEmpty
	}

	cfg := Default()
	if err := yaml.Unmarshal(cfgBytes, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Access.Mode != "" && !stringsx.OneOf(c.Access.Mode, ModePermissive, ModeExported) {
		return fmt.Errorf("%w: '%s'", ErrUnknownAccessMode, c.Access.Mode)
	}

	if c.Tracing.Endpoint != "" && c.Tracing.ServiceName == "" {
		return ErrServiceNameEmpty
	}

	return nil
}

// Policy returns the escalation policy the access section describes.
func (c *Config) Policy() access.Policy {
	p := access.Permissive
	if c.Access.Mode == ModeExported {
		p = access.ExportedOnly
	}

	if c.Access.AllowReadOnlyWrite != nil {
		p.AllowReadOnlyWrite = *c.Access.AllowReadOnlyWrite
	}

	return p
}
