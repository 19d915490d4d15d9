package shared_test

import (
	"context"
	"errors"
	"fmt"

	"nimli/internal/shared"
)

// Example_mapError demonstrates remapping a transport error at an adapter boundary.
func Example_mapError() {
	err := fmt.Errorf("GET /creators/popular: %w", context.DeadlineExceeded)

	mapped := shared.MapError(err)

	fmt.Println(mapped.Kind, mapped.Code(), mapped.IsRetryable())

	// Output:
	// networkError 1001 true
}

// Example_statusError demonstrates how HTTP statuses map to kinds.
func Example_statusError() {
	for _, status := range []int{401, 404, 500} {
		mapped := shared.MapError(&shared.StatusError{StatusCode: status})
		fmt.Println(status, mapped.Kind)
	}

	// Output:
	// 401 unauthorized
	// 404 notFound
	// 500 serverError
}

// Example_is demonstrates kind comparison with errors.Is.
func Example_is() {
	err := shared.Wrap(shared.NotFound("creator c404 not found"), "get creator detail")

	fmt.Println(errors.Is(err, shared.ErrNotFound))
	fmt.Println(err)

	// Output:
	// true
	// get creator detail: creator c404 not found
}
