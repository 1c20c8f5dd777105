package design

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// LoadFile reads a design from an HCL file:
//
//	motor "I59WN" {
//	  thrust_source = "AeroTech_I59WN.eng"
//	  ...
//	}
//
//	vehicle "booster" {
//	  radius = 0.025
//	  motor "I59WN" { position = -0.30 }
//	  parachute "main" { trigger = "apogee" ... }
//	}
func LoadFile(path string) (Design, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return Design{}, fmt.Errorf("failed to parse design file %s: %w", path, diags)
	}
	return decode(file, path)
}

// Parse decodes a design from HCL source. filename is used in diagnostics.
func Parse(src []byte, filename string) (Design, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return Design{}, fmt.Errorf("failed to parse design %s: %w", filename, diags)
	}
	return decode(file, filename)
}

func decode(file *hcl.File, name string) (Design, error) {
	var d Design
	if diags := gohcl.DecodeBody(file.Body, nil, &d); diags.HasErrors() {
		return Design{}, fmt.Errorf("failed to decode design %s: %w", name, diags)
	}
	return d, nil
}
