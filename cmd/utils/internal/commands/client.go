package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
)

const defaultServiceURL = "http://localhost:8087"

func newClient(config *apt.Config) *apt.ServiceClient {
	return apt.NewServiceClient(config.GetStringOrDef("seating.url", defaultServiceURL))
}

// decodeData re-decodes the generic data member of a response envelope.
func decodeData[T any](resp *apt.SuccessResponse) (T, error) {
	var out T
	if resp == nil {
		return out, errors.New("empty response")
	}
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return out, fmt.Errorf("encode response data: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response data: %w", err)
	}
	return out, nil
}

func hasStatus(err error, status int) bool {
	var httpErr *apt.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == status
}

func isConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func printJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
