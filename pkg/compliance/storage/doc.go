// Package storage provides the durable backends that evidence.Manager and
// audit.Trail write through to: an in-memory backend for tests and small
// deployments, and a SQLite backend for anything that needs to survive a
// restart. Both backends implement evidence.Storage and audit.Storage.
package storage
