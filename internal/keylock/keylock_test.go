package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestSameKeyExcludes(t *testing.T) {
	var s Striped
	unlock := s.Lock("a|b|c")

	acquired := make(chan struct{})
	go func() {
		u := s.Lock("a|b|c")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatalf("second Lock on the same key did not block")
	case <-time.After(30 * time.Millisecond):
	}
	unlock()
	<-acquired
}

func TestConcurrentCounters(t *testing.T) {
	var s Striped
	counts := map[string]int{}
	var wg sync.WaitGroup
	var mapMu sync.Mutex
	for i := 0; i < 50; i++ {
		for _, k := range []string{"x", "y", "z"} {
			wg.Add(1)
			go func(k string) {
				defer wg.Done()
				unlock := s.Lock(k)
				defer unlock()
				mapMu.Lock()
				counts[k]++
				mapMu.Unlock()
			}(k)
		}
	}
	wg.Wait()
	for _, k := range []string{"x", "y", "z"} {
		if counts[k] != 50 {
			t.Fatalf("%s=%d", k, counts[k])
		}
	}
}
