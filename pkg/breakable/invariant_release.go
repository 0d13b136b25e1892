//go:build !breakabledebug

package breakable

func invariant(bool, string) {}
