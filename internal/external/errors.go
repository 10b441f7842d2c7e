package external

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"skywise/internal/types"
)

// errorBodyLimit caps how much of a provider error body is read for logging.
const errorBodyLimit = 4096

// wrapDoError converts a BaseClient.Do failure into a provider error. Rate
// limiting keeps its own code so callers can back off; everything else is
// reported under the provider's code.
func wrapDoError(provider, operation string, code types.ErrorCode, err error) *types.AppError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == types.ErrCodeUpstreamRateLimited {
			code = appErr.Code
		}
		return types.NewAppError(
			code,
			fmt.Sprintf("%s %s: %s", provider, operation, appErr.Message),
			appErr.Err,
		)
	}
	return types.NewAppError(code, fmt.Sprintf("%s %s failed", provider, operation), err)
}

// readErrorBody drains at most errorBodyLimit bytes of a non-2xx response.
func readErrorBody(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return string(b)
}
