// Package http implements the JSON REST surface: routing, middleware,
// request validation, and response shaping.
//
// This file implements a small builder for the uniform response envelope
// {success, message, data, errors, filters}.
package http

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire shape of every response, success or failure.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Filters any      `json:"filters,omitempty"`
}

// ResponseBuilder provides a fluent API for building envelope responses.
type ResponseBuilder struct {
	statusCode int
	envelope   Envelope
}

// NewResponse creates a success response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		envelope:   Envelope{Success: true},
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Message sets the envelope message.
func (b *ResponseBuilder) Message(msg string) *ResponseBuilder {
	b.envelope.Message = msg
	return b
}

// Data sets the envelope payload.
func (b *ResponseBuilder) Data(data any) *ResponseBuilder {
	b.envelope.Data = data
	return b
}

// Filters echoes the validated filter parameters back to the caller.
func (b *ResponseBuilder) Filters(filters any) *ResponseBuilder {
	b.envelope.Filters = filters
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.envelope)
}

// ErrorResponse creates a failure response with the given status and message.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: statusCode,
		envelope:   Envelope{Success: false, Message: message},
	}
}

// ValidationError creates a 400 response carrying every failed rule; the
// first failure becomes the message.
func ValidationError(errs []string) *ResponseBuilder {
	msg := "Validation failed"
	if len(errs) > 0 {
		msg = errs[0]
	}
	b := ErrorResponse(http.StatusBadRequest, msg)
	b.envelope.Errors = errs
	return b
}

// BadRequestError creates a 400 Bad Request failure response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found failure response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 failure response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
