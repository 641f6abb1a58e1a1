// Package history provides "last modified" metadata for documentation sections.
//
// # Overview
//
// A Table maps a section identifier (for example "getting-started") to a Record
// holding the time the section last changed and an optional link to its commit
// history. The table is built once at startup and never mutated afterwards.
//
// Lookups are delivered asynchronously after a fixed simulated latency. Callers
// observe a pending state first and the resolved value later. Unknown sections
// resolve to a nil Record; that is a normal outcome, not an error.
//
// # Tables
//
// Built-in defaults:
//
//	table := history.DefaultTable()
//	rec, ok := table.Lookup("installation")
//
// From YAML, S3 or SQL (see OpenTable):
//
//	table, err := history.OpenTable(ctx, history.TableSpec{
//		Kind: history.TableKindFile,
//		Path: "/etc/hearth/history.yaml",
//	})
//
// # Watching a section
//
// A Watcher follows the section a page is currently displaying. Every call to
// Watch supersedes the previous one: its pending timer is stopped and, should
// the callback still run, its invocation token no longer matches and the result
// is dropped. Close cancels whatever is pending and nothing is delivered after it.
//
//	w := history.NewWatcher(history.NewTableSource(table))
//	defer w.Close()
//
//	w.Watch("getting-started")
//	w.Watch("installation") // getting-started is never delivered
//	update := <-w.Updates()
//
// # One-shot resolution
//
// Request/response callers use a Resolver, which waits out the latency and
// treats context cancellation as teardown:
//
//	r := history.NewResolver(source, history.WithLatency(100*time.Millisecond))
//	rec, err := r.Resolve(ctx, "basic-usage")
//
// # Related Packages
//
//   - pkg/history/github: commit history from the GitHub REST API
//   - pkg/history/cache: read-through LRU and Redis caching for any Source
//   - pkg/api: HTTP endpoints serving records
package history
