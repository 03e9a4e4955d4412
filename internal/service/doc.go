// Package service contains the use cases of the task collaboration backend:
// work group membership, tasks, projects and the global task catalog.
//
// Key components:
//
// 1. Service Interfaces:
//   - MembershipService drives the per-group role state machine
//   - TaskService owns the ACTIVE -> ARCHIVED task lifecycle
//   - ProjectService binds tasks and members to projects
//   - WorkGroupService and CatalogService cover the remaining reads and writes
//
// 2. Transactions:
//   - Every operation runs inside store.Transactor.WithinTx
//   - Membership transitions lock the work group row before reading roles,
//     task mutations lock the task row
//   - Rules are checked before the first write, so a failed operation leaves
//     no partial change behind
//
// 3. Authorization:
//   - Roles are re-read from the membership store on every call and decided
//     by the policy package; nothing is cached between calls
//
// 4. Error Handling:
//   - Failures are *Error values wrapping one of the domain sentinel errors
//     (ErrNotFound, ErrForbidden, ErrInvalidState, ErrInvalidArgument,
//     ErrConflict, ErrBadRequest, ErrUnauthenticated)
//   - Transient store failures keep their original cause
//
// Domain events are published after a successful commit; emission failures
// are logged and never fail the operation.
package service
