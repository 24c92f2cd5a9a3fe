package concurrent

import (
	"sync"
)

// Async runs the given function in a new go routine,
// returning only once the go routine has been scheduled.
func Async(exec func()) {
	var mutex = new(sync.Mutex)
	mutex.Lock()
	go func() {
		mutex.Unlock()
		exec()
	}()
	mutex.Lock()
}
