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

// Command lvisgrid grids LVIS laser shot footprints onto a regular raster
// grid.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/lvisgrid/lvisgridutil"
)

func main() {
	if err := lvisgridutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
