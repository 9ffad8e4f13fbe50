package vssolution

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// msbuildProject is the subset of a .vcxproj document the parser reads.
type msbuildProject struct {
	ItemGroups           []itemGroup           `xml:"ItemGroup"`
	ItemDefinitionGroups []itemDefinitionGroup `xml:"ItemDefinitionGroup"`
}

type itemGroup struct {
	Items []msbuildItem `xml:",any"`
}

type msbuildItem struct {
	XMLName xml.Name
	Include string `xml:"Include,attr"`
}

type itemDefinitionGroup struct {
	ClCompile []struct {
		AdditionalIncludeDirectories string `xml:"AdditionalIncludeDirectories"`
	} `xml:"ClCompile"`
}

func readProject(file string) (*msbuildProject, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var proj msbuildProject
	if err := xml.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", file, err)
	}
	return &proj, nil
}

// items returns ClCompile and ClInclude Include values in document order.
func (p *msbuildProject) items() []string {
	var out []string
	for _, g := range p.ItemGroups {
		for _, it := range g.Items {
			switch it.XMLName.Local {
			case "ClCompile", "ClInclude":
				if inc := strings.TrimSpace(it.Include); inc != "" {
					out = append(out, inc)
				}
			}
		}
	}
	return out
}

// includeDirectories returns every ;-separated AdditionalIncludeDirectories
// entry across all configurations, unexpanded.
func (p *msbuildProject) includeDirectories() []string {
	var out []string
	for _, g := range p.ItemDefinitionGroups {
		for _, cl := range g.ClCompile {
			for _, dir := range strings.Split(cl.AdditionalIncludeDirectories, ";") {
				if dir = strings.TrimSpace(dir); dir != "" {
					out = append(out, dir)
				}
			}
		}
	}
	return out
}
