package memhog

const (
	// DefaultChunkSize is the size of one allocation unit: 10 MiB.
	DefaultChunkSize = 10 * 1024 * 1024

	// DefaultFillByte is the byte every chunk is filled with.
	DefaultFillByte = 'x'
)

const (
	// OOMDiagnostic is the single line the guarded binary writes to
	// stderr before exiting.
	OOMDiagnostic = "MemoryError caught"

	// OOMExitCode is the status the guarded binary exits with after
	// intercepting an allocation failure.
	OOMExitCode = 1
)

const (
	// LogLevelNone keeps the hog silent. It is the default: the fixture
	// must not write anything beyond the guarded diagnostic.
	LogLevelNone = iota
	LogLevelInfo
	LogLevelDebug
)
