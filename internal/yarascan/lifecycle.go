package yarascan

import (
	"sync"

	yara "github.com/hillu/go-yara/v4"
)

// libyara keeps process-wide state that must be initialized before the first
// scanner exists and torn down after the last one is closed. The binding
// initializes it on package load; we reference-count Scanner instances so
// Finalize only runs when the last one goes away.
var (
	engineMu   sync.Mutex
	engineRefs int
)

func acquireEngine() {
	engineMu.Lock()
	engineRefs++
	engineMu.Unlock()
}

func releaseEngine() {
	engineMu.Lock()
	defer engineMu.Unlock()
	if engineRefs == 0 {
		return
	}
	engineRefs--
	if engineRefs == 0 {
		_ = yara.Finalize()
	}
}

// engineRefCount reports the number of live Scanner instances.
func engineRefCount() int {
	engineMu.Lock()
	defer engineMu.Unlock()
	return engineRefs
}
