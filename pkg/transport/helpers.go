package transport

import (
	"io"
	"io/ioutil"
)

// consumeAndClose will read all the data from the provided io.ReadCloser, then close
// it.  Intended to safely drain HTTP connections so they can be reused by the pool.
func consumeAndClose(r io.ReadCloser) {
	_, _ = io.Copy(ioutil.Discard, r)
	_ = r.Close()
}
