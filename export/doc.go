// Package export writes the triple table and the consolidated graph. Table and
// graph files are written atomically; the rendered image is best-effort.
package export
