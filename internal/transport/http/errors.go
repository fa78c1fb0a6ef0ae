package httptransport

import (
	"errors"
	"net/http"
	"strings"

	"rentrihub/internal/movimenti"
	"rentrihub/internal/rentri"
	"rentrihub/internal/transmission"
	"rentrihub/pkg/domain"
	dErrors "rentrihub/pkg/domain-errors"
	"rentrihub/pkg/platform/httputil"
)

// rejectionExcerptLen caps how much of a Registry rejection body is echoed
// back to the caller.
const rejectionExcerptLen = 512

// writeError renders a service failure. Registry outcomes keep their original
// status and wording because rejections are legally meaningful and operators
// need to read what the Registry actually said; everything else goes through
// the shared domain-error envelope.
func writeError(w http.ResponseWriter, err error) {
	if status, body, ok := registryFailure(err); ok {
		httputil.WriteJSON(w, status, body)
		return
	}
	httputil.WriteError(w, err)
}

// registryFailure translates the Registry client's error taxonomy. A 4xx
// rejection passes through with the Registry's own status; a Registry 5xx or
// a transport failure surfaces as a bad gateway.
func registryFailure(err error) (int, map[string]any, bool) {
	var rejection *rentri.RejectionError
	if errors.As(err, &rejection) {
		status := rentri.RejectionStatus(err, http.StatusBadGateway)
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		return status, map[string]any{
			"error":             "registry_rejected",
			"registry_status":   rejection.Status,
			"error_description": bodyExcerpt(rejection.Body),
		}, true
	}
	var transportErr *rentri.TransportError
	if errors.As(err, &transportErr) {
		return http.StatusBadGateway, map[string]any{
			"error":             "registry_unreachable",
			"error_description": "the Registry could not be reached",
		}, true
	}
	return 0, nil, false
}

func bodyExcerpt(body []byte) string {
	if len(body) > rejectionExcerptLen {
		body = body[:rejectionExcerptLen]
	}
	return strings.ToValidUTF8(string(body), "")
}

// writePushFailure keeps per-movement validation exclusions visible when the
// push as a whole fails, instead of discarding the partial result.
func writePushFailure(w http.ResponseWriter, result *transmission.PushResult, err error) {
	status, body, ok := registryFailure(err)
	if !ok {
		code := dErrors.GetCode(err)
		status = dErrors.ToHTTPStatus(code)
		body = map[string]any{"error": string(code)}
		if code != dErrors.CodeInternal {
			var de *dErrors.Error
			if errors.As(err, &de) {
				body["error_description"] = de.Message
			}
		}
	}
	if result != nil && len(result.Excluded) > 0 {
		body["excluded"] = excludedViews(result.Excluded)
	}
	httputil.WriteJSON(w, status, body)
}

func excludedViews(excluded map[domain.MovimentoID][]movimenti.FieldError) []excludedMovimento {
	views := make([]excludedMovimento, 0, len(excluded))
	for id, fieldErrs := range excluded {
		view := excludedMovimento{MovimentoID: id.String()}
		for _, fe := range fieldErrs {
			view.Errors = append(view.Errors, fe.String())
		}
		views = append(views, view)
	}
	return views
}
