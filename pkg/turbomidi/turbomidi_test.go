package turbomidi

import (
	"testing"
	"time"

	"elektron/turbomidi-go/pkg/port"
)

// newTestPipe returns a connected port pair for facade tests
func newTestPipe() (Port, Port) {
	return port.NewPipe()
}

// TestFacade_NegotiateCertified exercises the facade end to end
func TestFacade_NegotiateCertified(t *testing.T) {
	a, b := port.NewPipe()

	master := NewMaster(a, DefaultConfig(), NewNoOpLogger())
	responder := NewResponder(b, DefaultConfig(), NewNoOpLogger())
	responder.SetSupportedSpeed(Speed8x, true)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				responder.Pump()
				time.Sleep(time.Millisecond)
			}
		}
	}()

	ok := master.Negotiate(Speed8x, time.Second)
	close(stop)
	<-done

	if !ok {
		t.Fatalf("Negotiate() = false, want true")
	}
	if master.CurrentSpeed() != Speed8x || responder.CurrentSpeed() != Speed8x {
		t.Errorf("speeds = %v/%v, want 8x/8x",
			master.CurrentSpeed(), responder.CurrentSpeed())
	}
}
