package motionplan

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestPlanMeta(t *testing.T) {
	pm := NewPlanMeta()
	test.That(t, pm.Counters("expand").Calls(), test.ShouldEqual, 0)
	test.That(t, pm.Counters("expand").Mean(), test.ShouldEqual, time.Duration(0))

	pm.AddTiming("expand", 2*time.Millisecond)
	pm.AddTiming("expand", 4*time.Millisecond)
	pm.AddTiming("checkSegment", time.Millisecond)

	counters := pm.Counters("expand")
	test.That(t, counters.Calls(), test.ShouldEqual, 2)
	test.That(t, counters.Total(), test.ShouldEqual, 6*time.Millisecond)
	test.That(t, counters.Mean(), test.ShouldEqual, 3*time.Millisecond)

	var buf bytes.Buffer
	test.That(t, pm.OutputTiming(&buf), test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	test.That(t, len(lines), test.ShouldEqual, 2)
	test.That(t, lines[0], test.ShouldStartWith, "checkSegment:")
	test.That(t, lines[1], test.ShouldStartWith, "expand:")
	test.That(t, lines[1], test.ShouldContainSubstring, "    2 calls")
	test.That(t, lines[1], test.ShouldContainSubstring, "3ms mean")
}
