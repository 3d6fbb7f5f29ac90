package query

import (
	"encoding/binary"
	"io"
)

// writeFingerprint folds one expression-tree fingerprint into a statement
// hash.
func writeFingerprint(w io.Writer, fp uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], fp)
	w.Write(buf[:])
}
