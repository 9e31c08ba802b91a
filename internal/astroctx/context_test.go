package astroctx

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/pkg/models"
)

func testBirth() models.BirthData {
	tz := 330
	return models.BirthData{
		Date: "1990-05-15", Time: "14:30",
		Lat: 28.6139, Lon: 77.2090, TZOffset: &tz,
	}
}

// countingEngine wraps the kernel and counts Position calls, proving the
// singleflight collapse.
type countingEngine struct {
	ephemeris.Engine
	calls int64
}

func (c *countingEngine) Position(b models.Body, jd float64) (models.Position, error) {
	atomic.AddInt64(&c.calls, 1)
	return c.Engine.Position(b, jd)
}

func newTestBuilder(t *testing.T, opts ...Option) (*Builder, *countingEngine) {
	t.Helper()
	eng, err := ephemeris.NewEngine(ephemeris.Config{})
	if err != nil {
		t.Fatal(err)
	}
	ce := &countingEngine{Engine: eng}
	return NewBuilder(ce, opts...), ce
}

func TestStaticComputesAllSlices(t *testing.T) {
	b, _ := newTestBuilder(t)
	st, err := b.Static(context.Background(), testBirth())
	if err != nil {
		t.Fatal(err)
	}
	if st.Chart == nil {
		t.Fatal("missing chart")
	}
	if len(st.Divisionals) != 16 {
		t.Errorf("got %d divisional charts, want 16", len(st.Divisionals))
	}
	if len(st.Nakshatras) != 9 || len(st.Dignities) != 9 {
		t.Errorf("nakshatras/dignities cover %d/%d bodies, want 9/9",
			len(st.Nakshatras), len(st.Dignities))
	}
	if len(st.Shadbala) != 7 {
		t.Errorf("shadbala covers %d bodies, want 7", len(st.Shadbala))
	}
	if len(st.Karakas) != 7 {
		t.Errorf("got %d karakas, want 7", len(st.Karakas))
	}
	if st.JanmaNak28 < 0 || st.JanmaNak28 > 27 {
		t.Errorf("janma nakshatra %d out of range", st.JanmaNak28)
	}
}

func TestStaticCachedByHash(t *testing.T) {
	b, ce := newTestBuilder(t)
	ctx := context.Background()
	if _, err := b.Static(ctx, testBirth()); err != nil {
		t.Fatal(err)
	}
	before := atomic.LoadInt64(&ce.calls)
	if _, err := b.Static(ctx, testBirth()); err != nil {
		t.Fatal(err)
	}
	if after := atomic.LoadInt64(&ce.calls); after != before {
		t.Errorf("second call hit the engine (%d -> %d calls)", before, after)
	}
}

func TestStaticSingleflight(t *testing.T) {
	b, _ := newTestBuilder(t)
	ctx := context.Background()
	const n = 8
	var wg sync.WaitGroup
	results := make([]*Static, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := b.Static(ctx, testBirth())
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = st
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent callers should share one static entry")
		}
	}
}

func TestDynamicTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b, _ := newTestBuilder(t, WithClock(clock), WithTTL(24*time.Hour))
	ctx := context.Background()

	w := Window{Start: now, End: now.AddDate(0, 1, 0)}
	d1, err := b.Dynamic(ctx, testBirth(), w)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := b.Dynamic(ctx, testBirth(), w)
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Error("within TTL the same entry should be served")
	}

	now = now.Add(25 * time.Hour)
	d3, err := b.Dynamic(ctx, testBirth(), w)
	if err != nil {
		t.Fatal(err)
	}
	if d3 == d1 {
		t.Error("expired entry should be recomputed")
	}
}

func TestDynamicContainsSlices(t *testing.T) {
	b, _ := newTestBuilder(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	dy, err := b.Dynamic(ctx, testBirth(), Window{Start: start, End: start.AddDate(0, 2, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if dy.Dashas == nil || len(dy.Dashas.Vimshottari) != 5 {
		t.Error("dynamic slice missing the five-level dasha snapshot")
	}
	if dy.Transits == nil {
		t.Error("dynamic slice missing transits")
	}
	if len(dy.KotaCells) == 0 {
		t.Error("dynamic slice missing kota cells")
	}
}

func TestInvalidate(t *testing.T) {
	b, ce := newTestBuilder(t)
	ctx := context.Background()
	birth := testBirth()
	if _, err := b.Static(ctx, birth); err != nil {
		t.Fatal(err)
	}
	b.Invalidate(birth.Hash())
	before := atomic.LoadInt64(&ce.calls)
	if _, err := b.Static(ctx, birth); err != nil {
		t.Fatal(err)
	}
	if after := atomic.LoadInt64(&ce.calls); after == before {
		t.Error("invalidated entry should recompute")
	}
}

func TestTopicSchemas(t *testing.T) {
	b, _ := newTestBuilder(t)
	ctx := context.Background()
	for _, topic := range Topics() {
		tc, err := b.Topic(ctx, topic, testBirth(), nil)
		if err != nil {
			t.Fatalf("%s: %v", topic, err)
		}
		if tc.Chart == nil {
			t.Errorf("%s: missing chart", topic)
		}
		if len(tc.Divisionals) != len(topicDivisions[topic]) {
			t.Errorf("%s: %d divisionals, want %d", topic, len(tc.Divisionals), len(topicDivisions[topic]))
		}
		if len(tc.HouseLords) != len(topicHouses[topic]) {
			t.Errorf("%s: %d house lords, want %d", topic, len(tc.HouseLords), len(topicHouses[topic]))
		}
		if tc.Dynamic != nil {
			t.Errorf("%s: dynamic attached without a window", topic)
		}
		if _, ok := tc.Static["yogas"]; !ok {
			t.Errorf("%s: common static fields missing", topic)
		}
	}
	if _, err := b.Topic(ctx, Topic("astrology"), testBirth(), nil); err != ErrUnknownTopic {
		t.Fatalf("got %v, want ErrUnknownTopic", err)
	}
}

func TestTopicWithWindow(t *testing.T) {
	b, _ := newTestBuilder(t)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	w := Window{Start: start, End: start.AddDate(0, 3, 0)}
	tc, err := b.Topic(context.Background(), TopicMarriage, testBirth(), &w)
	if err != nil {
		t.Fatal(err)
	}
	if tc.Dynamic == nil {
		t.Fatal("marriage topic with a window should carry dynamics")
	}
	if _, ok := tc.Static["double_transit_7th"]; !ok {
		t.Error("marriage topic should report the double-transit check")
	}
}
