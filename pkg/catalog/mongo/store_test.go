package mongo

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/matzehuels/orrery/pkg/catalog"
	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/errors"
)

const ns = "orrery.catalogs"

func solDoc() bson.D {
	return bson.D{
		{Key: "name", Value: "sol"},
		{Key: "description", Value: "test system"},
		{Key: "objects", Value: bson.A{
			bson.D{
				{Key: "id", Value: "sol"},
				{Key: "classification", Value: "star"},
				{Key: "properties", Value: bson.D{{Key: "radius_km", Value: 695700.0}}},
			},
			bson.D{
				{Key: "id", Value: "ceres"},
				{Key: "classification", Value: "Dwarf Planet"},
				{Key: "properties", Value: bson.D{{Key: "radius_km", Value: 469.7}}},
				{Key: "orbit", Value: bson.D{
					{Key: "parent_id", Value: "sol"},
					{Key: "semi_major_axis_au", Value: 2.77},
				}},
			},
		}},
	}
}

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, solDoc()))

		c, err := NewStore(mt.Coll).Get(ctx, "sol")
		if err != nil {
			mt.Fatalf("Get() error = %v", err)
		}
		if c.Name != "sol" || len(c.Objects) != 2 {
			mt.Fatalf("Get() = %+v", c)
		}
		ceres := c.Objects[1]
		if ceres.Classification != celestial.DwarfPlanet || ceres.ParentID() != "sol" || ceres.SemiMajorAxis() != 2.77 {
			mt.Errorf("ceres = %+v", ceres)
		}
	})

	mt.Run("get missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewStore(mt.Coll).Get(ctx, "andromeda")
		if !errors.Is(err, errors.ErrCodeCatalogNotFound) {
			mt.Errorf("Get() error = %v, want %s", err, errors.ErrCodeCatalogNotFound)
		}
	})

	mt.Run("get invalid name", func(mt *mtest.T) {
		_, err := NewStore(mt.Coll).Get(ctx, "../sol")
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			mt.Errorf("Get() error = %v", err)
		}
	})

	mt.Run("list", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "name", Value: "alpha-centauri"}, {Key: "objects", Value: int32(5)}},
			bson.D{{Key: "name", Value: "sol"}, {Key: "description", Value: "test system"}, {Key: "objects", Value: int32(2)}},
		))

		list, err := NewStore(mt.Coll).List(ctx)
		if err != nil {
			mt.Fatal(err)
		}
		want := []catalog.Info{
			{Name: "alpha-centauri", Objects: 5},
			{Name: "sol", Description: "test system", Objects: 2},
		}
		if len(list) != len(want) || list[0] != want[0] || list[1] != want[1] {
			mt.Errorf("List() = %+v, want %+v", list, want)
		}
	})

	mt.Run("put", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		c := &catalog.Catalog{Name: "mini", Objects: []celestial.Object{{ID: "sol", Classification: "Star"}}}
		if err := NewStore(mt.Coll).Put(ctx, c); err != nil {
			mt.Fatalf("Put() error = %v", err)
		}
		if c.Objects[0].Classification != celestial.Star {
			mt.Errorf("Put() did not normalize: %q", c.Objects[0].Classification)
		}
	})

	mt.Run("put server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
			Name:    "DuplicateKey",
		}))

		c := &catalog.Catalog{Name: "mini"}
		if err := NewStore(mt.Coll).Put(ctx, c); err == nil {
			mt.Error("Put() should surface server errors")
		}
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := NewStore(mt.Coll).Delete(ctx, "andromeda")
		if !errors.Is(err, errors.ErrCodeCatalogNotFound) {
			mt.Errorf("Delete() error = %v", err)
		}
	})

	mt.Run("chain fallthrough", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		chain := catalog.Chain{NewStore(mt.Coll), catalog.Builtin}
		c, err := chain.Get(ctx, "alpha-centauri")
		if err != nil || c.Name != "alpha-centauri" {
			mt.Errorf("Chain.Get() = %v, %v", c, err)
		}
	})
}

func TestCloseBorrowed(t *testing.T) {
	if err := NewStore(nil).Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
