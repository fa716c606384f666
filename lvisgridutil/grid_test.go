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

package lvisgridutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/kr/pretty"
	"github.com/spatialmodel/lvisgrid"
	"github.com/spatialmodel/lvisgrid/lvis"
)

const testSR = "+proj=lcc +lat_1=33.000000 +lat_2=45.000000 +lat_0=40.000000 +lon_0=-97.000000 +x_0=0 +y_0=0 +a=6370997.000000 +b=6370997.000000 +to_meter=1"

// writeTestL2 writes an LVIS L2 file with a 5 x 5 block of shots about
// 20 m apart near 97 W, 40 N.
func writeTestL2(t *testing.T, dir string) string {
	path := filepath.Join(dir, "LVIS2_test.TXT")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	fmt.Fprintln(f, "# LVIS L2 test data")
	fmt.Fprintln(f, "# LFID SHOTNUMBER TIME GLON GLAT ZG TLON TLAT ZT RH10 RH15 RH20 RH25 RH30 RH35 RH40 RH45 RH50 RH55 RH60 RH65 RH70 RH75 RH80 RH85 RH90 RH95 RH96 RH97 RH98 RH99 RH100 AZIMUTH INCIDENTANGLE RANGE COMPLEXITY CHANNEL_ZT CHANNEL_ZG CHANNEL_RH")
	shot := 0
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			lon := 263.0 + 0.00024*float64(i)
			lat := 40.0 + 0.00018*float64(j)
			zg := 300 + float64(shot)
			fmt.Fprintf(f, "1001 %d %g %.6f %.6f %g %.6f %.6f %g", 9000+shot, 64800+0.01*float64(shot),
				lon, lat, zg, lon, lat, zg+20)
			for k := range lvis.RHPercentiles {
				fmt.Fprintf(f, " %g", float64(k*shot%7))
			}
			fmt.Fprintln(f, " 10.1 2.2 7500.3 0.5 1 2 3")
			shot++
		}
	}
	return path
}

func setTestConfig(dir, input, output string) {
	Cfg.Set("config", "")
	Cfg.Set("Input", input)
	Cfg.Set("OutputFile", output)
	Cfg.Set("LogFile", "")
	Cfg.Set("Resolution", 30.0)
	Cfg.Set("Template", "")
	Cfg.Set("Mask", "")
	Cfg.Set("SR", testSR)
	Cfg.Set("Variables", []string{"ZG", "CC_PERCENT"})
	Cfg.Set("PassThrough", []string{"LFID"})
	Cfg.Set("CanopyCover", true)
	Cfg.Set("KeepIntermediate", true)
	Cfg.Set("IntermediateDir", dir)
	Cfg.Set("MaxRecords", 0)
	Cfg.Set("MaskFormat", "asc")
}

func TestGrid(t *testing.T) {
	dir := t.TempDir()
	in := writeTestL2(t, dir)
	out := filepath.Join(dir, "gridded.geojson")
	setTestConfig(dir, in, out)
	Root.SetArgs([]string{"grid"})
	Root.SetOut(new(bytes.Buffer))
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var fc struct {
		Features []struct {
			Properties map[string]interface{}
		}
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) == 0 {
		t.Fatal("no output features")
	}
	var shots float64
	for _, f := range fc.Features {
		p := f.Properties
		shots += p["shot_count"].(float64)
		if lfid := p["LFID"].(float64); lfid != 1001 {
			t.Errorf("LFID: have %g, want 1001", lfid)
		}
		zg := p["ZG_wt_avg"].(float64)
		if zg < 300 || zg > 324 {
			t.Errorf("ZG_wt_avg %g is out of range", zg)
		}
		if _, ok := p["CC_PERCENT_avg"]; !ok {
			t.Error("missing CC_PERCENT_avg")
		}
	}
	if shots < 25 {
		t.Errorf("total shot count %g is less than the number of shots", shots)
	}

	var s lvisgrid.Summary
	if _, err := toml.DecodeFile(filepath.Join(dir, "gridded.summary.toml"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Footprints != 25 || s.CoveredCells != len(fc.Features) || s.SkippedFootprints != 0 {
		t.Errorf("summary: %+v", s)
	}

	for _, f := range []string{"gridded.log", "LVIS2_test_shot_circles.shp",
		"LVIS2_test_shot_cover.asc", "LVIS2_test_grid_cells.shp"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("missing output file: %v", err)
		}
	}
	logText, err := os.ReadFile(filepath.Join(dir, "gridded.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logText), "lvisgrid completed successfully") {
		t.Error("log file does not report completion")
	}
}

// Gridding onto the coverage mask saved as NetCDF gives the same result
// as deriving the mask from the footprints.
func TestGridMask(t *testing.T) {
	dir := t.TempDir()
	in := writeTestL2(t, dir)
	out1 := filepath.Join(dir, "first.sqlite")
	setTestConfig(dir, in, out1)
	Cfg.Set("MaskFormat", "ncf")
	Root.SetArgs([]string{"grid"})
	Root.SetOut(new(bytes.Buffer))
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	out2 := filepath.Join(dir, "second.shp")
	setTestConfig(dir, in, out2)
	Cfg.Set("Mask", filepath.Join(dir, "LVIS2_test_shot_cover.ncf"))
	Cfg.Set("Resolution", 0.0)
	Cfg.Set("KeepIntermediate", false)
	Root.SetArgs([]string{"grid"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	var s1, s2 lvisgrid.Summary
	if _, err := toml.DecodeFile(filepath.Join(dir, "first.summary.toml"), &s1); err != nil {
		t.Fatal(err)
	}
	if _, err := toml.DecodeFile(filepath.Join(dir, "second.summary.toml"), &s2); err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(s1, s2); len(diff) > 0 {
		t.Error(diff)
	}
}

func TestCanopyCoverCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeTestL2(t, dir)
	out := filepath.Join(dir, "with_cc.txt")
	setTestConfig(dir, in, out)
	Root.SetArgs([]string{"cc"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	l, err := lvis.ReadL2(f)
	if err != nil {
		t.Fatal(err)
	}
	i := l.Column(lvis.CanopyCoverColumn)
	if i < 0 || len(l.Rows) != 25 {
		t.Fatalf("column %d, %d rows", i, len(l.Rows))
	}
	// Shot 0 has no heights above the threshold.
	if l.Rows[0][i] != 0 {
		t.Errorf("shot 0 canopy cover: have %g, want 0", l.Rows[0][i])
	}
}

func TestVersion(t *testing.T) {
	Cfg.Set("config", "")
	b := new(bytes.Buffer)
	Root.SetOut(b)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "lvisgrid v" + lvisgrid.Version; !strings.Contains(b.String(), want) {
		t.Errorf("have %q, want %q", b.String(), want)
	}
}

func TestCheckVariables(t *testing.T) {
	for _, test := range []struct {
		in   interface{}
		want []string
	}{
		{in: nil, want: nil},
		{in: []string{"ZG", " RH100 "}, want: []string{"ZG", "RH100"}},
		{in: "ZG,RH100", want: []string{"ZG", "RH100"}},
		{in: []interface{}{"ZG", "", "CC_PERCENT"}, want: []string{"ZG", "CC_PERCENT"}},
	} {
		have, err := checkVariables(test.in)
		if err != nil {
			t.Fatal(err)
		}
		if diff := pretty.Diff(have, test.want); len(diff) > 0 {
			t.Errorf("%v: %v", test.in, diff)
		}
	}
}

func TestCheckGridDefinition(t *testing.T) {
	if err := checkGridDefinition(0, "", ""); err == nil {
		t.Error("missing resolution should be an error")
	}
	if err := checkGridDefinition(10, "a.asc", "b.asc"); err == nil {
		t.Error("template and mask together should be an error")
	}
	if err := checkGridDefinition(10, "a.asc", ""); err == nil {
		t.Error("resolution and template together should be an error")
	}
	if err := checkGridDefinition(10, "", "m.ncf"); err == nil {
		t.Error("resolution and mask together should be an error")
	}
	if err := checkGridDefinition(0, "a.asc", ""); err != nil {
		t.Error(err)
	}
	if err := checkGridDefinition(0, "", "m.ncf"); err != nil {
		t.Error(err)
	}
	if have := checkLogFile("", "/tmp/out.shp"); have != "/tmp/out.log" {
		t.Errorf("log file: have %s", have)
	}
}

func TestCheckMaskFormat(t *testing.T) {
	for in, want := range map[string]string{"": "asc", "asc": "asc", ".NCF": "ncf"} {
		have, err := checkMaskFormat(in)
		if err != nil {
			t.Fatal(err)
		}
		if have != want {
			t.Errorf("%q: have %q, want %q", in, have, want)
		}
	}
	if _, err := checkMaskFormat("tif"); err == nil {
		t.Error("tif should be an error")
	}
}

// A grid with both a Resolution and a Mask is rejected.
func TestGridResolutionAndMask(t *testing.T) {
	dir := t.TempDir()
	in := writeTestL2(t, dir)
	setTestConfig(dir, in, filepath.Join(dir, "out.geojson"))
	Cfg.Set("Mask", filepath.Join(dir, "mask.asc"))
	Root.SetArgs([]string{"grid"})
	if err := Root.Execute(); err == nil {
		t.Error("want an error")
	}
}
