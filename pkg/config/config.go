// Copyright 2024 Nokia
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

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Targets    []*TargetConfig `yaml:"targets,omitempty" json:"targets,omitempty"`
	Prometheus *PromConfig     `yaml:"prometheus,omitempty" json:"prometheus,omitempty"`
	HTTP       *HTTPConfig     `yaml:"http,omitempty" json:"http,omitempty"`
}

type PromConfig struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}

type HTTPConfig struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}

func New(file string) (*Config, error) {
	c := new(Config)
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		err = yaml.Unmarshal(b, c)
		if err != nil {
			return nil, err
		}
	}
	err := c.validateSetDefaults()
	return c, err
}

func (c *Config) validateSetDefaults() error {
	if c.HTTP == nil {
		c.HTTP = &HTTPConfig{}
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = defaultHTTPAddress
	}

	names := make(map[string]struct{}, len(c.Targets))
	var errs []error
	for i, t := range c.Targets {
		if t == nil {
			errs = append(errs, fmt.Errorf("target %d: empty definition", i))
			continue
		}
		if _, ok := names[t.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate target name %q", t.Name))
		}
		names[t.Name] = struct{}{}
		if err := t.ValidateSetDefaults(); err != nil {
			errs = append(errs, fmt.Errorf("target %q: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Target returns the target configuration with the given name or nil.
func (c *Config) Target(name string) *TargetConfig {
	for _, t := range c.Targets {
		if t != nil && t.Name == name {
			return t
		}
	}
	return nil
}
