package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-reader/internal/http/response"
)

// EnvelopeVersion is the envelope format version sent as "v".
const EnvelopeVersion = response.Version

// APIEnvelope is the body of every API response.
type APIEnvelope = response.Envelope //nolint:revive // API prefix is intentional for clarity

// EnvelopeTransformer wraps every huma response body in the API envelope.
// Errors become {"v":1,"success":false,"error":...,"code":...}; everything
// else becomes {"v":1,"success":true,"data":...}.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if env, ok := v.(APIEnvelope); ok {
		return env, nil
	}

	code, _ := strconv.Atoi(status)

	switch e := v.(type) {
	case *APIError:
		return response.WrapError(e.Code, e.Message, e.Details), nil
	case error:
		return response.WrapError(response.CodeForStatus(code), e.Error(), nil), nil
	}

	return response.Wrap(code, v), nil
}
