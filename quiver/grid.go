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

// Grid provides read-only, cell addressed access to a decoded table.
// Implementations must be safe for concurrent reads.
type Grid interface {
	// Dimensions returns the size of the grid including headers.
	Dimensions() Dimensions

	// IsEmpty reports whether the grid has no index, headers or data.
	IsEmpty() bool

	// Cell returns the cell at the given grid position.
	// Returns ErrIndexOutOfRange if row or col is out of range.
	Cell(row, col int) (Cell, error)

	// IndexNames returns the display name of each index level.
	IndexNames() []string

	// Caption returns the caption of a styled grid, or "".
	Caption() string
}

var _ Grid = (*Table)(nil)
