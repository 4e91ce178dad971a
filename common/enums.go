// Package common keeps enums and error types shared by all pipeline stages.
package common

//go:generate go tool go-enum --marshal --names --values

// Class of the failure which terminated processing.
// ENUM(internal, configuration, destination-missing, converter-unavailable, page-not-found, root-marker-not-found, font-reference-missing)
type ErrorKind int

// ExitCode returns process exit code reported for this class of failure.
func (k ErrorKind) ExitCode() int {
	switch k {
	case ErrorKindConfiguration, ErrorKindDestinationMissing, ErrorKindPageNotFound:
		return 404
	default:
		return -1
	}
}

// Kind of non fatal condition recorded in the manifest.
// ENUM(duplicate_font, page_count_mismatch)
type WarningKind string
