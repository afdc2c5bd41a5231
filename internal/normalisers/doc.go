// Package normalisers turns source files into domain documents.
//
// Each subpackage implements driven.DocumentLoader for one file format and
// keeps the page structure of the source where the format has one. The
// Registry picks a loader by file extension.
package normalisers
