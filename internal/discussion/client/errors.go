package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// GeneralField holds errors that are not tied to a form field
const GeneralField = "non_field_errors"

// general error keys used by different server versions, all rendered unprefixed
var generalFields = map[string]bool{
	GeneralField:      true,
	"non_field_error": true,
	"__all__":         true,
	"detail":          true,
	"error":           true,
}

// IsGeneralField reports whether errors under field are rendered without a field prefix
func IsGeneralField(field string) bool {
	return generalFields[field]
}

// APIError is returned for every non-2xx response
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s failed with status: %s", e.Op, e.Status)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return fmt.Sprintf("%s failed with status: %s (%s)", e.Op, e.Status, strings.Join(parts, "; "))
}

// decodeAPIError reads a field -> messages body when the server sent one
func decodeAPIError(op string, resp *http.Response) error {
	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return apiErr
	}

	fields := make(map[string][]string, len(raw))
	for key, value := range raw {
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			if len(list) > 0 {
				fields[key] = list
			}
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil && single != "" {
			fields[key] = []string{single}
		}
	}
	if len(fields) > 0 {
		apiErr.Fields = fields
	}
	return apiErr
}

// ErrorFields turns any error into the field map the notification center renders.
// Errors without field information end up under GeneralField.
func ErrorFields(err error) map[string][]string {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		return apiErr.Fields
	}
	return map[string][]string{GeneralField: {err.Error()}}
}
