// Package checksum computes the content digests used for change detection.
package checksum

import (
	"crypto/md5" //nolint:gosec // change detection only
	"encoding/hex"
)

// Sum returns the hex-encoded MD5 digest of data. MD5 keeps digests
// compatible with caches written by earlier versions of the converter.
func Sum(data []byte) string {
	h := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(h[:])
}
