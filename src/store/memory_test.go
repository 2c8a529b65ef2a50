package store_test

import (
	"testing"

	"github.com/username/dolarhistorico/src/store"
	"github.com/username/dolarhistorico/src/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.TableStore {
		return store.NewMemory()
	})
}
