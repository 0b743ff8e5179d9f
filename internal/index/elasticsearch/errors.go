package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/congquynguyen296/hq-shop/internal/domain"
)

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// transportError classifies a failure to get any response at all.
func transportError(op string, err error) error {
	reason := domain.ReasonUnreachable
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		reason = domain.ReasonCanceled
	case errors.Is(err, context.DeadlineExceeded):
		reason = domain.ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		reason = domain.ReasonTimeout
	}
	return domain.NewBackendError(domain.BackendIndex, reason, fmt.Errorf("elasticsearch %s: %w", op, err))
}

// statusError turns a non-2xx response into a bad_status BackendError,
// keeping the Elasticsearch error type and reason when the body has them.
func statusError(op string, res *esapi.Response) error {
	var errResp esErrorResponse
	if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
		return domain.NewBackendError(domain.BackendIndex, domain.ReasonBadStatus,
			fmt.Errorf("elasticsearch %s: %s: %s: %s", op, res.Status(), errResp.Error.Type, errResp.Error.Reason))
	}
	return domain.NewBackendError(domain.BackendIndex, domain.ReasonBadStatus,
		fmt.Errorf("elasticsearch %s: unexpected status %s", op, res.Status()))
}

func malformed(op string, err error) error {
	return domain.NewBackendError(domain.BackendIndex, domain.ReasonMalformedResponse,
		fmt.Errorf("elasticsearch %s: decode response: %w", op, err))
}
