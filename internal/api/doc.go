// Package api provides the HTTP client and wire types for the marina
// back-office API.
//
// # Endpoints
//
//   - GET /api/sync/status: connectivity snapshot, {success, data}
//   - GET /api/sync/operations: pending operations, {success, operations}
//   - GET /api/sync/notifications: operator notifications, {success, notifications}
//   - GET|PATCH /api/profile, GET /api/dashboard/stats, GET /api/marina/overview:
//     {success, data}
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Carry a per-request cache-busting query parameter (_ts) and
//     Cache-Control: no-cache
//   - Set a fresh X-Request-ID
//   - Have an 8-second client timeout
//
// Non-2xx responses become *StatusError, malformed bodies a "decode response"
// error and success=false envelopes wrap ErrUnsuccessful. Callers treat all
// three as a failed read; the client never retries.
//
// # Profile Patches
//
// ValidateProfilePatch checks a ProfilePatch against an embedded JSON schema.
// The mock provider and the server share it so both modes reject the same input.
package api
