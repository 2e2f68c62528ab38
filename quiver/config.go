// Copyright 2025 Magnus Pierre
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

package quiver

import (
	"fmt"
	"log"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Logger defines an interface for writing log messages.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// DefaultLogger logs to the Go stdlib logs.
type DefaultLogger struct{}

// Infof implements the Logger.Infof interface.
func (DefaultLogger) Infof(format string, args ...interface{}) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
}

// Errorf implements the Logger.Errorf interface.
func (DefaultLogger) Errorf(format string, args ...interface{}) {
	_ = log.Output(2, "error: "+fmt.Sprintf(format, args...))
}

// Config holds the settings used when decoding payloads.
type Config struct {
	// Allocator backs the buffers of decoded arrays.
	Allocator memory.Allocator

	// Logger receives notices about degraded decodes, such as an index
	// column of null type being dropped.
	Logger Logger
}

// DefaultConfig returns a Config using the default arrow allocator and the
// stdlib logger.
func DefaultConfig() Config {
	return Config{
		Allocator: memory.DefaultAllocator,
		Logger:    DefaultLogger{},
	}
}

func (c Config) withDefaults() Config {
	if c.Allocator == nil {
		c.Allocator = memory.DefaultAllocator
	}
	if c.Logger == nil {
		c.Logger = DefaultLogger{}
	}
	return c
}
