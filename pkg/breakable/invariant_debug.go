//go:build breakabledebug

package breakable

// invariant panics on broken internal bookkeeping. Only built with the
// breakabledebug tag.
func invariant(cond bool, msg string) {
	if !cond {
		panic("breakable: " + msg)
	}
}
