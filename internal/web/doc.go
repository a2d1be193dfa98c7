// Package web serves the single page frontend's entry document for every path
// no other route claims.
package web
