// Package api provides the HTTP handlers of the question service.
//
// Handlers decode and validate JSON requests, call the service layer, and
// answer with the shared envelopes: {success, data} on success and
// {error, code, trace_id} on failure. Internal errors are mapped to status
// codes and sanitized messages by MapErrorToStatusCode and
// GetSafeErrorMessage; details only reach the logs, after redaction.
package api
