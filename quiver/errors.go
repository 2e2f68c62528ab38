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

import "github.com/cockroachdb/errors"

// Errors returned by the quiver package. Call sites wrap these with
// coordinates or type signatures; use errors.Is to test for a kind.
var (
	// ErrSchemaMissing is returned when a payload carries no pandas metadata.
	ErrSchemaMissing = errors.New("table schema is missing")

	// ErrMalformedSchema is returned when the pandas metadata cannot be
	// parsed or references fields absent from the payload.
	ErrMalformedSchema = errors.New("malformed table schema")

	// ErrMalformedColumnLabel is returned when a multi-level column name is
	// not a tuple literal.
	ErrMalformedColumnLabel = errors.New("malformed column label")

	// ErrIndexOutOfRange is returned when an accessor is called with
	// coordinates outside the table.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnsupportedStylerAppend is returned when rows are added to or from
	// a styled table.
	ErrUnsupportedStylerAppend = errors.New("unsupported operation: add rows on a styled table")

	// ErrIndexSignatureMismatch is returned when the index types of two
	// tables being merged differ.
	ErrIndexSignatureMismatch = errors.New("index signature mismatch")

	// ErrDataSignatureMismatch is returned when the data types of two tables
	// being merged differ.
	ErrDataSignatureMismatch = errors.New("data signature mismatch")

	// ErrDimensionMismatch is returned when the data row or column count
	// disagrees with the counts implied by the headers.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrMalformedInterval is returned when an interval type string or value
	// cannot be interpreted.
	ErrMalformedInterval = errors.New("malformed interval")

	// ErrInvalidTimezone is returned when a datetimetz column names neither a
	// known zone nor a UTC offset.
	ErrInvalidTimezone = errors.New("invalid timezone")
)
