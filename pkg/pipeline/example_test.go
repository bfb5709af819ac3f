package pipeline_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/pipeline"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

func ExampleService_CalculateSystemLayout() {
	objects := []celestial.Object{
		{ID: "sol", Classification: celestial.Star, Properties: celestial.Properties{RadiusKm: 695700}},
		{ID: "earth", Classification: celestial.Planet, Properties: celestial.Properties{RadiusKm: 6371},
			Orbit: &celestial.Orbit{ParentID: "sol", SemiMajorAxisAU: 1}},
		{ID: "luna", Classification: celestial.Moon, Properties: celestial.Properties{RadiusKm: 1737.4},
			Orbit: &celestial.Orbit{ParentID: "earth", SemiMajorAxisAU: 0.00257}},
	}

	svc, err := pipeline.New(pipeline.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer svc.Close()

	strategy := viewmode.Resolve("navigational", svc.Config(), nil)
	ctx := context.Background()

	l, err := svc.CalculateSystemLayout(ctx, objects, strategy)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(l.Metadata.RootID, l.Metadata.ObjectCount, l.Metadata.CacheHit)
	fmt.Println(l.Children("sol"), l.Children("earth"))

	again, _ := svc.CalculateSystemLayout(ctx, objects, strategy)
	fmt.Println(again.Metadata.CacheHit)
	// Output:
	// sol 3 false
	// [earth] [luna]
	// true
}
