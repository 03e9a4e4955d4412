// Package domain contains the core business entities, value objects, and
// domain errors of the task manager: work groups, their memberships and
// roles, projects, tasks, and the globally administered task catalog.
//
// Entities refer to each other by ID only. A Task stores the ID of its work
// group and, optionally, of its project; a Project never holds a back-pointer
// to its tasks. Loading related entities is the job of the store layer.
package domain
