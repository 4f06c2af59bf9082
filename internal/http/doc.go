// Package http provides HTTP handlers and middleware for the calendar API.
//
// The router exposes the following endpoints:
//   - GET /schedules, POST /schedules, PUT /schedules/{id}, DELETE /schedules/{id}:
//     schedule management endpoints exchanging the `scheduleDTO` payload defined in
//     schedule_handler.go. Schedule responses include conflict warnings and expanded
//     recurrence occurrences.
//   - GET /calendar/{calendar_id}/events, POST /calendar/{calendar_id}/events,
//     GET/PATCH/DELETE /calendar/{calendar_id}/events/{event_id}: calendar event
//     endpoints exchanging the all-fields-optional event payload defined in
//     internal/event. Create requests must satisfy the strict non-PATCH validity
//     rules; PATCH requests may carry any subset of fields, validated against the
//     stored entity. GET requests with `from`/`to` bounds return the materialized
//     instances of a recurring event inside the window.
//
// Every request carries its API key verbatim in the Authorization header;
// RequireAPIKey resolves it to the acting principal before any handler runs.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
