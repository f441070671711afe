package compress

// Compress encodes content payloads before they hit the store and decodes
// them on the way out. The codec used is recorded on the row so old rows stay
// readable after the configured codec changes.
type Compress interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

const (
	NameNop    = "nop"
	NameGZip   = "gzip"
	NameLZ4    = "lz4"
	NameBrotli = "brotli"
)

// ForName returns the codec registered under name. Unknown or empty names
// fall back to the nop codec.
func ForName(name string) Compress {
	switch name {
	case NameGZip:
		return NewGZip()
	case NameLZ4:
		return NewLZ4()
	case NameBrotli:
		return NewBrotli()
	default:
		return NewNop()
	}
}

// Name reports the registered name of a codec.
func Name(c Compress) string {
	switch c.(type) {
	case GZip:
		return NameGZip
	case LZ4:
		return NameLZ4
	case Brotli:
		return NameBrotli
	default:
		return NameNop
	}
}
