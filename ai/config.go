// Copyright 2025 Poiesic Systems
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


package ai

import "errors"

const (
	// DefaultNewsDimension is the pseudo-embedding length for news articles.
	DefaultNewsDimension = 192
	// DefaultDecisionDimension is the pseudo-embedding length for market events.
	DefaultDecisionDimension = 256
	// MaxDimension bounds the vector length accepted by Validate.
	MaxDimension = 4096
)

// Config holds the embedding dimensions used by the two retrieval services.
type Config struct {
	// NewsDimension is the vector length for the news index.
	// Default: 192
	NewsDimension int

	// DecisionDimension is the vector length for the decision index.
	// Default: 256
	DecisionDimension int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithNewsDimension sets the news embedding length.
func WithNewsDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.NewsDimension = dim
	}
}

// WithDecisionDimension sets the decision embedding length.
func WithDecisionDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.DecisionDimension = dim
	}
}

// DefaultConfig returns a Config with the stock dimensions.
func DefaultConfig() *Config {
	return &Config{
		NewsDimension:     DefaultNewsDimension,
		DecisionDimension: DefaultDecisionDimension,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(WithNewsDimension(128))
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that both dimensions are positive and bounded.
func (c *Config) Validate() error {
	if c.NewsDimension < 1 || c.NewsDimension > MaxDimension {
		return errors.New("ai config: NewsDimension must be between 1 and 4096")
	}
	if c.DecisionDimension < 1 || c.DecisionDimension > MaxDimension {
		return errors.New("ai config: DecisionDimension must be between 1 and 4096")
	}
	return nil
}
