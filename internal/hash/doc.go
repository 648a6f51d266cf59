// Package hash provides the checksums used by on-disk database files.
//
// Database manifests and serialized profiles carry a CRC32-Castagnoli
// (CRC32C) checksum. Go's hash/crc32 uses SSE4.2 or the ARM CRC extension
// when available, so checksumming a multi-gigabyte data file stays cheap
// compared to reading it.
//
//	sum := hash.CRC32C(data)
//
//	h := hash.NewCRC32C()
//	_, _ = io.Copy(h, f)
//	sum = h.Sum32()
//
// CRC32C only detects accidental corruption; it is not a tamper check.
package hash
