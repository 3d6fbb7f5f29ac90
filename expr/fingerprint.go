package expr

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
)

// Fingerprint returns a stable hash of the tree, values included. Equal
// fingerprints identify statements that compile to the same SQL text and
// parameter list, which is what the statement cache keys on.
func (n *Node) Fingerprint() uint64 {
	if n == nil {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte("op:" + n.Op))
	writeUint64(h, operandFingerprint(n.Left))
	writeUint64(h, operandFingerprint(n.Right))
	return h.Sum64()
}

func operandFingerprint(v any) uint64 {
	switch o := v.(type) {
	case nil:
		return 0
	case *Node:
		return o.Fingerprint()
	case []any:
		h := fnv.New64a()
		for _, item := range o {
			writeUint64(h, operandFingerprint(item))
		}
		return h.Sum64()
	default:
		// The type is part of the identity: 36 and "36" print alike but
		// bind different parameters.
		h := fnv.New64a()
		fmt.Fprintf(h, "%T:%v", o, o)
		return h.Sum64()
	}
}

func writeUint64(w io.Writer, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	w.Write(buf[:])
}
