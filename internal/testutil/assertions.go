package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API response wrapper.
type Envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	ErrorType string          `json:"error_type"`
	Details   struct {
		Errors map[string][]string `json:"errors"`
	} `json:"details"`
}

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// DecodeEnvelope reads the response body into an Envelope.
func DecodeEnvelope(t *testing.T, resp *http.Response) Envelope {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	var env Envelope
	err = json.Unmarshal(body, &env)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
	return env
}

// AssertSuccess verifies the status code and decodes data into v when
// given.
func AssertSuccess(t *testing.T, resp *http.Response, expectedStatus int, v any) Envelope {
	t.Helper()

	env := DecodeEnvelope(t, resp)
	require.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code: %s", env.Message)
	require.True(t, env.Success, "expected success response, got: %s", env.Message)
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v), "failed to unmarshal data")
	}
	return env
}

// AssertError verifies the status code and error_type of a failure
// response.
func AssertError(t *testing.T, resp *http.Response, expectedStatus int, expectedErrorType string) Envelope {
	t.Helper()

	env := DecodeEnvelope(t, resp)
	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code: %s", env.Message)
	assert.False(t, env.Success, "expected failure response")
	assert.Equal(t, expectedErrorType, env.ErrorType, "unexpected error_type")
	return env
}

// PaginatedData is the data shape of list responses.
type PaginatedData struct {
	Items      json.RawMessage `json:"items"`
	Pagination struct {
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
		HasNext    bool  `json:"has_next"`
		HasPrev    bool  `json:"has_prev"`
	} `json:"pagination"`
}

// AssertPaginated decodes a paginated response and unmarshals items into
// v when given.
func AssertPaginated(t *testing.T, resp *http.Response, v any) PaginatedData {
	t.Helper()

	env := AssertSuccess(t, resp, http.StatusOK, nil)
	var data PaginatedData
	require.NoError(t, json.Unmarshal(env.Data, &data), "failed to unmarshal paginated data")
	if v != nil {
		require.NoError(t, json.Unmarshal(data.Items, v), "failed to unmarshal items")
	}
	return data
}
