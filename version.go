package barrow

// Version constants for the on-disk format and the package itself.
const (
	Major = 0
	Minor = 1
	Patch = 0

	// FormatVersion is stamped into the header page. It is bumped
	// whenever the page, node, or meta layout changes in a way that
	// breaks compatibility with previously written files.
	FormatVersion = 1
)

// VersionString returns a human-readable version string.
func VersionString() string {
	return "barrow 0.1.0 (pure Go copy-on-write B+-tree engine)"
}
