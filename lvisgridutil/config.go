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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// GridConfig holds the settings of the grid command.
type GridConfig struct {
	Input, OutputFile, LogFile string

	// Exactly one of Resolution, Template and Mask defines the grid.
	Resolution     float64
	Template, Mask string
	RasterVariable string

	SR string

	Variables, PassThrough []string

	ShotDiameter         float64
	QuadrantSegments     int
	LonColumn, LatColumn string

	CanopyCover bool
	RHThreshold float64

	AreaTolerance float64
	Workers       int
	MaxRecords    int

	KeepIntermediate bool
	IntermediateDir  string

	// MaskFormat is "asc" or "ncf".
	MaskFormat string
}

// GridConfigFromViper reads and checks the grid settings held by cfg.
func GridConfigFromViper(cfg *viper.Viper) (*GridConfig, error) {
	c := &GridConfig{
		Resolution:       cfg.GetFloat64("Resolution"),
		RasterVariable:   cfg.GetString("RasterVariable"),
		SR:               cfg.GetString("SR"),
		ShotDiameter:     cfg.GetFloat64("ShotDiameter"),
		QuadrantSegments: cfg.GetInt("QuadrantSegments"),
		LonColumn:        cfg.GetString("LonColumn"),
		LatColumn:        cfg.GetString("LatColumn"),
		CanopyCover:      cfg.GetBool("CanopyCover"),
		RHThreshold:      cfg.GetFloat64("RHThreshold"),
		AreaTolerance:    cfg.GetFloat64("AreaTolerance"),
		Workers:          cfg.GetInt("Workers"),
		MaxRecords:       cfg.GetInt("MaxRecords"),
		KeepIntermediate: cfg.GetBool("KeepIntermediate"),
	}
	var err error
	if c.Input, err = checkInputFile(cfg.GetString("Input")); err != nil {
		return nil, err
	}
	if c.OutputFile, err = checkOutputFile(cfg.GetString("OutputFile")); err != nil {
		return nil, err
	}
	c.LogFile = checkLogFile(os.ExpandEnv(cfg.GetString("LogFile")), c.OutputFile)
	if c.Variables, err = checkVariables(cfg.Get("Variables")); err != nil {
		return nil, fmt.Errorf("lvisgrid: Variables: %v", err)
	}
	if c.PassThrough, err = checkVariables(cfg.Get("PassThrough")); err != nil {
		return nil, fmt.Errorf("lvisgrid: PassThrough: %v", err)
	}
	c.Template = os.ExpandEnv(cfg.GetString("Template"))
	c.Mask = os.ExpandEnv(cfg.GetString("Mask"))
	if err = checkGridDefinition(c.Resolution, c.Template, c.Mask); err != nil {
		return nil, err
	}
	if c.ShotDiameter <= 0 {
		return nil, fmt.Errorf("lvisgrid: ShotDiameter must be positive but is %g", c.ShotDiameter)
	}
	if c.MaskFormat, err = checkMaskFormat(cfg.GetString("MaskFormat")); err != nil {
		return nil, err
	}
	c.IntermediateDir = os.ExpandEnv(cfg.GetString("IntermediateDir"))
	if c.IntermediateDir == "" {
		c.IntermediateDir = filepath.Dir(c.OutputFile)
	}
	if c.KeepIntermediate {
		if _, err := os.Stat(c.IntermediateDir); err != nil {
			return nil, fmt.Errorf("lvisgrid: the IntermediateDir directory doesn't exist: %v", err)
		}
	}
	return c, nil
}

// checkInputFile makes sure that the input file is specified and exists,
// and expands any environment variables.
func checkInputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an input file configuration variable (for example: Input="lvis_l2.txt")`)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("lvisgrid: problem with Input file: %v", err)
	}
	return f, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.shp")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("lvisgrid: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return logFile
}

// checkVariables converts a configuration value into a list of
// variable names, splitting comma separated entries, expanding
// environment variables and dropping blanks.
func checkVariables(v interface{}) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, err
	}
	var o []string
	for _, e := range s {
		for _, n := range strings.Split(e, ",") {
			if n = strings.TrimSpace(os.ExpandEnv(n)); n != "" {
				o = append(o, n)
			}
		}
	}
	return o, nil
}

// checkGridDefinition makes sure that exactly one way of defining the
// output grid was chosen.
func checkGridDefinition(resolution float64, template, mask string) error {
	switch {
	case template != "" && mask != "":
		return fmt.Errorf("lvisgrid: only one of Template and Mask may be specified")
	case (template != "" || mask != "") && resolution != 0:
		return fmt.Errorf("lvisgrid: Resolution may not be specified together with a Template or Mask, "+
			"which define the grid resolution, but it is %g", resolution)
	case template == "" && mask == "" && resolution <= 0:
		return fmt.Errorf("lvisgrid: Resolution must be positive unless a Template or Mask "+
			"is specified, but it is %g", resolution)
	}
	return nil
}

// checkMaskFormat normalizes the coverage mask file format, which
// defaults to "asc".
func checkMaskFormat(f string) (string, error) {
	f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
	switch f {
	case "":
		return "asc", nil
	case "asc", "ncf":
		return f, nil
	default:
		return "", fmt.Errorf(`lvisgrid: MaskFormat must be "asc" or "ncf", but it is %q`, f)
	}
}

// summaryFile returns the path of the run summary written next to the
// output file.
func summaryFile(outputFile string) string {
	return strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".summary.toml"
}
