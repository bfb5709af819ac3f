package catalog_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/orrery/pkg/catalog"
)

func ExampleRead() {
	src := `
name: pluto
objects:
  - id: pluto
    classification: dwarf planet
    properties: {radius_km: 1188.3}
  - id: charon
    classification: moon
    properties: {radius_km: 606}
    orbit: {parent_id: pluto, semi_major_axis_au: 0.000131}
`
	c, err := catalog.Read(strings.NewReader(src), catalog.FormatYAML)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, o := range c.Objects {
		fmt.Printf("%s (%s) parent=%q\n", o.ID, o.Classification, o.ParentID())
	}
	// Output:
	// pluto (dwarf_planet) parent=""
	// charon (moon) parent="pluto"
}
