// Package api exposes the work group, task, project and catalog services
// over HTTP. Handlers decode and validate requests, take the caller's
// identity from the request context and translate service errors into
// status codes through HandleAPIError; they hold no business rules.
package api
