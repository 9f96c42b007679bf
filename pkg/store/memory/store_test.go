package memory_test

import (
	"testing"

	"github.com/delaneyj/trackstate/pkg/store"
	"github.com/delaneyj/trackstate/pkg/store/memory"
)

func TestMemoryStore_Contract(t *testing.T) {
	store.RunContract(t, memory.New())
}
