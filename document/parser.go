package document

// Parser converts the raw bytes of one layer into ordered entries.
// Each format (user.js, YAML, TOML, JSONC) implements this interface.
type Parser interface {
	// Parse parses data read from the source called name.
	// The name is recorded in every Entry.Pos and in errors.
	// Parse must preserve declaration order and must not deduplicate.
	Parse(name string, data []byte) ([]Entry, error)

	// Format returns the document format this parser handles.
	Format() Format

	// MarshalTestData generates bytes that, when parsed, produce the given
	// entries in the same order. This is intended for testing.
	//
	// Returns a *MalformedEntryError with ReasonUnsupportedStructure if the
	// entries cannot be represented in this format.
	MarshalTestData(entries []Entry) ([]byte, error)
}
