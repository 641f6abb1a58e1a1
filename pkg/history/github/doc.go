// Package github resolves section history from the GitHub REST API.
//
// For a section id the source asks for the newest commit touching the
// section's markdown file:
//
//	GET /repos/{owner}/{repo}/commits?path=docs/{section}.md&sha={branch}&per_page=1
//
// Only sections present in the allow-list table are queried; anything else
// resolves to absent without a request.
package github
