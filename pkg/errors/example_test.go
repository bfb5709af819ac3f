package errors_test

import (
	"fmt"

	"github.com/matzehuels/orrery/pkg/errors"
)

func ExampleIs() {
	err := fmt.Errorf("load catalog: %w",
		errors.New(errors.ErrCodeCatalogNotFound, "catalog %s not found", "andromeda"))

	fmt.Println(errors.Is(err, errors.ErrCodeCatalogNotFound))
	fmt.Println(errors.Is(err, errors.ErrCodeInvalidInput))
	fmt.Println(errors.GetCode(err))
	// Output:
	// true
	// false
	// CATALOG_NOT_FOUND
}
