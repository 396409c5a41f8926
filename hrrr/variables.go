package hrrr

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Variable is a wgrib2 "VAR:level" key present in the wrfsfc files,
// with the unit the decoded values carry.
type Variable struct {
	Key  string
	Unit string
	Desc string
}

// Variables lists keys known to decode with DRS 5.0 or 5.3.
var Variables = []Variable{
	{"TMP:2 m above ground", "K", "2 m air temperature"},
	{"TMP:surface", "K", "surface skin temperature"},
	{"TMP:500 mb", "K", "500 mb temperature"},
	{"DPT:2 m above ground", "K", "2 m dew point"},
	{"RH:2 m above ground", "%", "2 m relative humidity"},
	{"SPFH:2 m above ground", "kg/kg", "2 m specific humidity"},
	{"REFC:entire atmosphere", "dBZ", "composite reflectivity"},
	{"CAPE:surface", "J/kg", "surface CAPE"},
	{"UGRD:10 m above ground", "m/s", "10 m U wind"},
	{"VGRD:10 m above ground", "m/s", "10 m V wind"},
	{"GUST:surface", "m/s", "surface wind gust"},
	{"PRATE:surface", "kg/m²/s", "precipitation rate"},
	{"APCP:surface", "kg/m²", "accumulated precipitation"},
	{"HGT:cloud ceiling", "m", "cloud ceiling height"},
	{"VIS:surface", "m", "surface visibility"},
	{"PRES:surface", "Pa", "surface pressure"},
	{"MSLMA:mean sea level", "Pa", "mean sea level pressure"},
	{"TCDC:entire atmosphere", "%", "total cloud cover"},
}

// LookupVariable returns the table entry for key.
func LookupVariable(key string) (Variable, bool) {
	for _, v := range Variables {
		if v.Key == key {
			return v, true
		}
	}
	return Variable{}, false
}

// PrintVariables writes the table, one key per line.
func PrintVariables(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tUNIT\tDESCRIPTION")
	for _, v := range Variables {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Key, v.Unit, v.Desc)
	}
	return tw.Flush()
}
