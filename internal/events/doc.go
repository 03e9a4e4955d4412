// Package events publishes domain events after a state change has been
// committed. Services emit through the EventEmitter interface; a Bus routes
// each event to the handlers subscribed to its type. The audit handler is
// subscribed to AuditedTypes and writes those events to the structured log.
package events
