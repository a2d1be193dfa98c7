// Package router implements an ordered, first-match-wins route table.
//
// A Table is an immutable sequence of routes built once with NewTable. Match
// walks the sequence in declaration order and returns the first route whose
// pattern matches the request path, together with the captured parameters.
// Nothing is cached and nothing is mutated, so a Table can be shared by any
// number of goroutines.
//
// Patterns are plain paths with optional captures:
//
//	/v2/experiments/                       literal
//	/v2/experiments/{exp_slug:int}/        one or more digits
//	/u/{username}/                         one path segment
//	/accounts/*                            any remainder
//	*                                      everything
//
// A route built with Include hands the remainder of the path to a sub-table.
// When the sub-table has no match, matching resumes with the next route of the
// parent, so an include never hides the routes declared after it.
//
// Named routes can be rendered back into paths with PathFor. Callers resolve
// the paths they need once, at startup.
package router
