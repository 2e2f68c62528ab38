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
	"strings"

	"github.com/cockroachdb/errors"
)

// parseColumns returns the column header labels as columns[level][col].
// With more than one header level every field name is a stringified tuple
// such as "('1', 'foo')" holding one label per level.
func parseColumns(s *Schema) ([][]string, error) {
	raw := s.RawColumns()
	if len(raw) == 0 {
		return nil, nil
	}
	if s.HeaderLevels() <= 1 {
		return [][]string{raw}, nil
	}

	tuples := make([][]string, len(raw))
	for i, name := range raw {
		t, err := ParseTupleLabel(name)
		if err != nil {
			return nil, err
		}
		if i > 0 && len(t) != len(tuples[0]) {
			return nil, errors.Wrapf(ErrMalformedColumnLabel,
				"%q has %d levels, expected %d", name, len(t), len(tuples[0]))
		}
		tuples[i] = t
	}

	levels := make([][]string, len(tuples[0]))
	for level := range levels {
		levels[level] = make([]string, len(tuples))
		for col, t := range tuples {
			levels[level][col] = t[level]
		}
	}
	return levels, nil
}

// ParseTupleLabel parses a stringified tuple literal into its elements.
// Quoted elements may use either quote character and backslash escapes;
// bare elements such as numbers are kept as written. A trailing comma is
// accepted.
func ParseTupleLabel(label string) ([]string, error) {
	s := strings.TrimSpace(label)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, errors.Wrapf(ErrMalformedColumnLabel, "%q is not a tuple", label)
	}
	s = s[1 : len(s)-1]

	var out []string
	for i := 0; ; {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}

		var elem string
		if q := s[i]; q == '\'' || q == '"' {
			var b strings.Builder
			i++
			closed := false
			for i < len(s) {
				c := s[i]
				if c == '\\' && i+1 < len(s) {
					b.WriteByte(s[i+1])
					i += 2
					continue
				}
				i++
				if c == q {
					closed = true
					break
				}
				b.WriteByte(c)
			}
			if !closed {
				return nil, errors.Wrapf(ErrMalformedColumnLabel, "unterminated string in %q", label)
			}
			elem = b.String()
		} else {
			j := strings.IndexByte(s[i:], ',')
			if j < 0 {
				j = len(s) - i
			}
			elem = strings.TrimSpace(s[i : i+j])
			i += j
		}
		out = append(out, elem)

		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}
		if s[i] != ',' {
			return nil, errors.Wrapf(ErrMalformedColumnLabel, "unexpected %q in %q", s[i], label)
		}
		i++
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(ErrMalformedColumnLabel, "empty tuple %q", label)
	}
	return out, nil
}
