package checkout

import "github.com/pkg/errors"

var (
	// ErrProductNotFound is returned when no product matches the requested id.
	ErrProductNotFound = errors.New("product not found")

	// ErrNoFileAvailable is returned when the product carries no file
	// reference and therefore cannot be purchased.
	ErrNoFileAvailable = errors.New("product has no file available")

	// ErrFileUnreachable is returned when the existence probe fails. The
	// product's file reference is cleared as a side effect, so subsequent
	// checkout attempts fail with ErrNoFileAvailable until an owner
	// re-uploads the file.
	ErrFileUnreachable = errors.New("product file is unreachable")
)
