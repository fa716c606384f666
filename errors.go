/*
Copyright © 2020 the lvisgrid authors.
This file is part of lvisgrid.

lvisgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

lvisgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with lvisgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package lvisgrid

import (
	"errors"
	"fmt"
)

// ConfigurationError reports bad parameters: a non-positive resolution,
// empty inputs or unrecognized variable names. It aborts a run.
type ConfigurationError struct {
	Param string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if e.Param == "" {
		return "lvisgrid: configuration: " + e.Msg
	}
	return fmt.Sprintf("lvisgrid: configuration: %s: %s", e.Param, e.Msg)
}

func configErrorf(param, format string, a ...interface{}) error {
	return &ConfigurationError{Param: param, Msg: fmt.Sprintf(format, a...)}
}

// GeometryError reports a degenerate or invalid polygon. It is
// recoverable: the offending footprint or cell is skipped and counted.
type GeometryError struct {
	// Kind is "footprint" or "cell".
	Kind string
	ID   int
	Err  error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("lvisgrid: invalid %s geometry %d: %v", e.Kind, e.ID, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// ArithmeticError reports a zero denominator in a weighted aggregate.
// Positive intersection areas make this impossible, so it signals a
// logic violation and aborts the run.
type ArithmeticError struct {
	CellID   int
	Variable string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("lvisgrid: sum of weights is zero for variable %q in cell %d",
		e.Variable, e.CellID)
}

// ErrRecordLimit is returned by Joiner.Join when the number of
// intersection records exceeds Joiner.MaxRecords.
var ErrRecordLimit = errors.New("lvisgrid: intersection record limit exceeded")
