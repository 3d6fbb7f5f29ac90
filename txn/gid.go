package txn

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID parses the current goroutine's id out of the stack header
// ("goroutine N [running]: ..."). The runtime exposes no cheaper identity,
// and the frame-map owner check needs one to tell a spawned goroutine apart
// from the scope's opener.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
