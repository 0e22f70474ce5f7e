// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors categorizes failures talking to the model endpoint and
// provides user-friendly explanations for each category.
package httperrors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
)

// Category is a coarse classification of an HTTP/network failure.
type Category int

const (
	Unknown Category = iota
	Canceled
	Timeout
	DNS
	ConnectionRefused
	TLS
	Auth
	RateLimited
	Server
	BadRequest
)

func (c Category) String() string {
	switch c {
	case Canceled:
		return "canceled"
	case Timeout:
		return "timeout"
	case DNS:
		return "dns"
	case ConnectionRefused:
		return "connection_refused"
	case TLS:
		return "tls"
	case Auth:
		return "auth"
	case RateLimited:
		return "rate_limited"
	case Server:
		return "server"
	case BadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// Classify inspects a network-level error. Status-code failures should be
// classified with FromStatus instead.
func Classify(err error) Category {
	switch {
	case err == nil:
		return Unknown
	case errors.Is(err, context.Canceled):
		return Canceled
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return ConnectionRefused
	case isSSLError(err):
		return TLS
	case isServerError(err.Error()):
		return Server
	default:
		return Unknown
	}
}

// FromStatus maps an HTTP status code to a category.
func FromStatus(code int) Category {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return Auth
	case code == http.StatusTooManyRequests:
		return RateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return Timeout
	case code >= 500:
		return Server
	case code >= 400:
		return BadRequest
	default:
		return Unknown
	}
}

// Explain returns a short human message and troubleshooting hints.
func Explain(c Category, host string) (string, []string) {
	switch c {
	case Canceled:
		return "Request canceled", nil
	case Timeout:
		return "The model endpoint took too long to respond", []string{
			"Slow internet connection",
			"The model is under heavy load",
			"Increase model.timeout for long reasoning runs",
		}
	case DNS:
		return "Cannot resolve " + host, []string{
			"Check your internet connection",
			"Check api.base_url for typos",
			"Check DNS settings or corporate DNS filtering",
		}
	case ConnectionRefused:
		return "Connection refused by " + host, []string{
			"The service may be temporarily down",
			"Check the port in api.base_url",
			"A firewall may be blocking the connection",
		}
	case TLS:
		return "Secure connection to " + host + " failed", []string{
			"Check your system date and time",
			"Verify network proxy settings",
		}
	case Auth:
		return "The model endpoint rejected the API key", []string{
			"Run 'sqlpilot key set' to store a valid key",
			"Or set SQLPILOT_API_KEY",
		}
	case RateLimited:
		return "Rate limit reached", []string{"Wait a moment and try again"}
	case Server:
		return "The model endpoint returned a server error", []string{
			"This is not a problem with your setup",
			"Please try again in a few minutes",
		}
	case BadRequest:
		return "The model endpoint rejected the request", []string{
			"Check api.model and the model.* parameters",
		}
	default:
		return "Cannot reach the model endpoint at " + host, []string{
			"Check your internet connection",
			"Check that api.base_url is reachable from your network",
		}
	}
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// isServerError checks if the error text indicates a 5xx response.
func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	return strings.Contains(lower, "internal server error") ||
		strings.Contains(lower, "bad gateway") ||
		strings.Contains(lower, "service unavailable") ||
		strings.Contains(lower, "gateway timeout")
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
