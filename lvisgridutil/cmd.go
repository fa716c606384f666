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

// Package lvisgridutil contains the command-line interface for lvisgrid.
package lvisgridutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/lvisgrid"
	"github.com/spatialmodel/lvisgrid/lvis"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to lvisgrid.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Input",
			usage: `
              Input is the path to the shots to be gridded: either an LVIS L2
              ASCII file or a shapefile (.shp) of footprint polygons.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), ccCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the output file. For the grid command
              the format is chosen by the extension: .shp, .geojson or .sqlite.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), ccCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It defaults to the
              OutputFile with the extension replaced by ".log".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Resolution",
			usage: `
              Resolution is the edge length of the output grid cells, in the units
              of the grid spatial reference. It may not be set together with
              Template or Mask.`,
			shorthand:  "r",
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Template",
			usage: `
              Template is an optional raster (ESRI ASCII grid .asc or NetCDF .ncf)
              whose cells the output grid is aligned with. The grid takes the
              resolution and spatial reference of the template.`,
			shorthand:  "t",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Mask",
			usage: `
              Mask is an optional raster (ESRI ASCII grid .asc or NetCDF .ncf) whose
              valid cells are used directly as the output grid, instead of a
              coverage mask derived from the footprints.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "RasterVariable",
			usage: `
              RasterVariable is the name of the variable holding the raster in
              NetCDF Template and Mask files.`,
			defaultVal: "mask",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "SR",
			usage: `
              SR is the planar spatial reference of the output grid, in Proj4 or WKT
              format. It is required unless a Template or Mask carrying a spatial
              reference is given.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Variables",
			usage: `
              Variables lists the shot columns whose minimum, maximum, mean and
              coverage-weighted mean are computed for each grid cell.`,
			shorthand:  "v",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "PassThrough",
			usage: `
              PassThrough lists identity columns whose mean value is copied to each
              grid cell without weighting.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "ShotDiameter",
			usage: `
              ShotDiameter is the diameter of the laser shots on the ground, in the
              units of the grid spatial reference.`,
			defaultVal: lvis.DefaultShotDiameter,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "QuadrantSegments",
			usage: `
              QuadrantSegments is the number of vertices per quarter circle used
              to approximate a shot footprint.`,
			defaultVal: lvis.DefaultQuadrantSegments,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "LonColumn",
			usage: `
              LonColumn is the LVIS column holding shot longitudes in degrees.`,
			defaultVal: lvis.DefaultLonColumn,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "LatColumn",
			usage: `
              LatColumn is the LVIS column holding shot latitudes in degrees.`,
			defaultVal: lvis.DefaultLatColumn,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "CanopyCover",
			usage: `
              CanopyCover specifies whether to estimate canopy cover for each shot
              and add it as column CC_PERCENT before gridding.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "RHThreshold",
			usage: `
              RHThreshold is the relative height, in meters, separating canopy from
              below-canopy returns when estimating canopy cover.`,
			defaultVal: lvis.RHThreshold,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), ccCmd.Flags()},
		},
		{
			name: "AreaTolerance",
			usage: `
              AreaTolerance is the fraction of a cell's area below which a
              footprint intersection is ignored.`,
			defaultVal: lvisgrid.DefaultAreaTolerance,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers is the number of processors to use. If it is less than 1, all
              available processors are used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "MaxRecords",
			usage: `
              MaxRecords is the maximum number of cell-footprint intersections
              a run may produce. Zero means no limit.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "KeepIntermediate",
			usage: `
              KeepIntermediate specifies whether to save the footprint polygons,
              the coverage mask and the grid cell polygons.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "IntermediateDir",
			usage: `
              IntermediateDir is the directory where intermediate files are saved.
              It defaults to the directory of OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "MaskFormat",
			usage: `
              MaskFormat is the file format of the saved coverage mask: "asc" for an
              ESRI ASCII grid or "ncf" for NetCDF, where the mask is stored as the
              variable named by RasterVariable. Either can be used as the Mask of a
              later run.`,
			defaultVal: "asc",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("LVISGRID")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(ccCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("lvisgrid: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "lvisgrid",
	Short: "Grid airborne laser altimeter shots onto a raster.",
	Long: `lvisgrid grids LVIS laser shot footprints onto a regular raster, computing
per-cell statistics weighted by the area each footprint contributes to each cell.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'LVISGRID_var' where 'var' is the
name of the variable to be set. File paths are additionally allowed to contain
environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of lvisgrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("lvisgrid v%s\n", lvisgrid.Version)
	},
	DisableAutoGenTag: true,
}

// gridCmd grids shot footprints onto a raster.
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Grid laser shots",
	Long: `grid converts laser shots into circular footprints, intersects them with
the cells of the output grid and writes one point per covered cell holding the
shot count, coverage, and the statistics of the requested variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GridConfigFromViper(Cfg)
		if err != nil {
			return err
		}
		return Grid(cmd, cfg)
	},
	DisableAutoGenTag: true,
}

// ccCmd adds canopy cover estimates to an LVIS L2 file.
var ccCmd = &cobra.Command{
	Use:   "cc",
	Short: "Estimate canopy cover",
	Long: `cc estimates the canopy cover of each shot in an LVIS L2 ASCII file from its
relative height percentiles and writes a copy of the file with the additional
column CC_PERCENT.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := checkInputFile(Cfg.GetString("Input"))
		if err != nil {
			return err
		}
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return CanopyCover(in, out, Cfg.GetFloat64("RHThreshold"))
	},
	DisableAutoGenTag: true,
}
