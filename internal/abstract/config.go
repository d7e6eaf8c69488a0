// Copyright 2021 Andrew Werner.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package abstract

import "math"

// MaxElements is the largest number of elements a Tree may hold.
const MaxElements = math.MaxUint32 - 1

// Config is used to configure a Tree.
type Config struct {

	// Capacity bounds the number of elements the tree will accept. Zero
	// means MaxElements.
	Capacity int

	// Verify runs the full structural check after every mutation and
	// panics on the first violation. It is expensive and meant for tests.
	Verify bool
}

// Option modifies a Config.
type Option func(*Config)

// WithCapacity bounds the number of elements the tree will accept. Inserts
// beyond the bound fail with ErrCapacityExceeded.
func WithCapacity(n int) Option {
	return func(c *Config) { c.Capacity = n }
}

// WithVerification enables the full structural check after every mutation.
func WithVerification() Option {
	return func(c *Config) { c.Verify = true }
}

// MakeConfig applies the options to the zero Config.
func MakeConfig(opts ...Option) Config {
	var c Config
	for _, o := range opts {
		o(&c)
	}
	return c
}

func (c Config) capacity() uint32 {
	if c.Capacity <= 0 || c.Capacity > MaxElements {
		return MaxElements
	}
	return uint32(c.Capacity)
}
