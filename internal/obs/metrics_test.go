package obs

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStore(t *testing.T) {
	okBefore := testutil.ToFloat64(StoreOperations.WithLabelValues("test", "save", ResultOK))
	errBefore := testutil.ToFloat64(StoreOperations.WithLabelValues("test", "save", ResultError))

	ObserveStore("test", "save", time.Now(), nil)
	ObserveStore("test", "save", time.Now(), errors.New("disk full"))
	ObserveStore("test", "save", time.Now(), nil)

	if got := testutil.ToFloat64(StoreOperations.WithLabelValues("test", "save", ResultOK)) - okBefore; got != 2 {
		t.Fatalf("ok count delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(StoreOperations.WithLabelValues("test", "save", ResultError)) - errBefore; got != 1 {
		t.Fatalf("error count delta = %v, want 1", got)
	}
}
