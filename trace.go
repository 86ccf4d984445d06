// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"fmt"
	"os"
)

// traceEnabled gates the package's diagnostic Fprintf calls, in the same
// spirit as memory.go's own `trace` flag: off by default, flippable by a
// caller embedding this package (or by test code) for debugging.
var traceEnabled = false

func trace(format string, args ...interface{}) {
	if !traceEnabled {
		return
	}
	fmt.Fprintf(os.Stderr, "malloc: "+format+"\n", args...)
}
