package config

const (
	// MaxTitleLength is the maximum length for record titles, in runes.
	MaxTitleLength = 200

	// MaxContentBytes is the maximum size of a single record's content.
	// The whole collection must fit in one contents API blob (1MB), so a
	// single note is kept well below that.
	MaxContentBytes = 256 << 10

	// MaxRequestBytes bounds request bodies (JSON or form).
	MaxRequestBytes = 1 << 20
)
