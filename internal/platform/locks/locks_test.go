package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_SerializesSameKey(t *testing.T) {
	keyed := NewKeyed()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keyed.Lock("acct-1")
			defer keyed.Unlock("acct-1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyed_DifferentKeysDoNotBlock(t *testing.T) {
	keyed := NewKeyed()
	keyed.Lock("acct-1")
	defer keyed.Unlock("acct-1")

	done := make(chan struct{})
	go func() {
		keyed.Lock("acct-2")
		keyed.Unlock("acct-2")
		close(done)
	}()
	<-done
}
