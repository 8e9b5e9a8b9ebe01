package interfaces

// CompressorInterface packs playlist snapshots before they hit the disk.
type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}
