// Package store defines the persistence interfaces for work groups,
// memberships, projects, tasks and the task catalog, together with the
// transaction abstraction services use to make multi-step changes atomic.
// Implementations live under internal/platform.
package store
