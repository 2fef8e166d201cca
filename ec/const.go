package ec

// Size is the addressable register space exposed by the ec_sys debugfs file.
const Size = 256

const (
	opRead     = "read"
	opReadWord = "read_word"
	opWrite    = "write"
	opSnapshot = "snapshot"
)
