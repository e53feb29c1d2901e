package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/ppiankov/verifica/internal/llm"
	"github.com/ppiankov/verifica/internal/model"
)

// FailureKind classifies why a verification could not produce a verdict
type FailureKind int

const (
	FailureUnexpected FailureKind = iota
	FailureAuth
	FailureRateLimited
	FailureServer
	FailureHTTP
	FailureTimeout
	FailureConnection
	FailureMalformed
)

func (k FailureKind) String() string {
	switch k {
	case FailureAuth:
		return "auth_error"
	case FailureRateLimited:
		return "rate_limited"
	case FailureServer:
		return "server_error"
	case FailureHTTP:
		return "http_error"
	case FailureTimeout:
		return "timeout"
	case FailureConnection:
		return "connection_failed"
	case FailureMalformed:
		return "malformed_response"
	default:
		return "unexpected_error"
	}
}

// Summaries shown for failed verifications
const (
	SummaryAPIError     = "API Error"
	SummaryTimeout      = "Network Timeout"
	SummaryConnection   = "Connection Error"
	SummaryMalformed    = "Invalid Response Format"
	SummaryUnexpected   = "Verification Failed"
	SummaryNoResponse   = "No response from API"
	SummaryInvalidClaim = "Invalid Claim"
)

const (
	explainAuth       = "Invalid API Key: Authentication failed. Please check your API key configuration."
	explainRateLimit  = "Rate Limited: Too many requests. Please wait a moment and try again."
	explainServer     = "Server Error: The API service is temporarily unavailable. Please try again later."
	explainTimeout    = "The request took too long. Please check your internet connection and try again."
	explainConnection = "Failed to connect to the API. Please check your internet connection."
	explainMalformed  = "The API returned an unexpected response format. Please try again."
	explainNoResponse = "The API returned an empty response. Please try again."
)

// errMalformedContent marks message content that is not the expected JSON object
var errMalformedContent = errors.New("message content is not a JSON object")

// Classify maps a provider failure onto the failure taxonomy
func Classify(err error) FailureKind {
	if err == nil {
		return FailureUnexpected
	}

	if status, _, ok := llm.StatusCode(err); ok {
		switch status {
		case http.StatusUnauthorized:
			return FailureAuth
		case http.StatusTooManyRequests:
			return FailureRateLimited
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return FailureServer
		default:
			return FailureHTTP
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	if isConnectionError(err) {
		return FailureConnection
	}

	var decodeErr *llm.DecodeError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &decodeErr) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, errMalformedContent) {
		return FailureMalformed
	}

	return FailureUnexpected
}

func isConnectionError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}

// FailureResult synthesizes the UNABLE_TO_VERIFY verdict for a failed verification
func FailureResult(claim string, err error) model.VerificationResult {
	summary, explanation := describeFailure(err)
	return model.VerificationResult{
		Claim:       claim,
		Rating:      model.RatingUnableToVerify,
		Summary:     summary,
		Explanation: explanation,
		Citations:   []model.Citation{},
	}
}

func describeFailure(err error) (string, string) {
	switch Classify(err) {
	case FailureAuth:
		return SummaryAPIError, explainAuth
	case FailureRateLimited:
		return SummaryAPIError, explainRateLimit
	case FailureServer:
		return SummaryAPIError, explainServer
	case FailureHTTP:
		status, msg, _ := llm.StatusCode(err)
		return SummaryAPIError, fmt.Sprintf("HTTP Error %d: %s", status, msg)
	case FailureTimeout:
		return SummaryTimeout, explainTimeout
	case FailureConnection:
		return SummaryConnection, explainConnection
	case FailureMalformed:
		return SummaryMalformed, explainMalformed
	default:
		msg := "Unknown error"
		if err != nil && err.Error() != "" {
			msg = err.Error()
		}
		return SummaryUnexpected, "An unexpected error occurred: " + msg
	}
}
