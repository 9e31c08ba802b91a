// Package astroctx assembles topic-specific astrological context objects
// with a two-layer cache: a static layer keyed by birth hash and a
// dynamic layer keyed by (birth hash, day-bucketed window).
package astroctx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/saptarishi/jyotishai/internal/analysis/ashtakavarga"
	"github.com/saptarishi/jyotishai/internal/analysis/dignity"
	"github.com/saptarishi/jyotishai/internal/analysis/jaimini"
	"github.com/saptarishi/jyotishai/internal/analysis/kota"
	"github.com/saptarishi/jyotishai/internal/analysis/nakshatra"
	"github.com/saptarishi/jyotishai/internal/analysis/shadbala"
	"github.com/saptarishi/jyotishai/internal/analysis/sphuta"
	"github.com/saptarishi/jyotishai/internal/analysis/yoga"
	"github.com/saptarishi/jyotishai/internal/chart"
	"github.com/saptarishi/jyotishai/internal/dasha"
	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/internal/panchang"
	"github.com/saptarishi/jyotishai/internal/transit"
	"github.com/saptarishi/jyotishai/internal/varga"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// NakshatraInfo is the per-body nakshatra slice of the static context.
type NakshatraInfo struct {
	Index int    `json:"index"`
	Pada  int    `json:"pada"`
	Name  string `json:"name"`
	Lord  models.Body `json:"lord"`
}

// Static is the birth-only context slice. It never changes for a given
// birth and is evicted only on explicit regeneration.
type Static struct {
	BirthHash   string                           `json:"birth_hash"`
	Chart       *models.NatalChart               `json:"chart"`
	Divisionals map[int]*models.DivisionalChart  `json:"divisional_charts"`
	Nakshatras  map[models.Body]NakshatraInfo    `json:"nakshatras"`
	Dignities   map[models.Body]dignity.Grade    `json:"dignities"`
	Shadbala    shadbala.Report                  `json:"shadbala"`
	Yogas       []yoga.Yoga                      `json:"yogas"`
	Ashtaka     ashtakavarga.Chart               `json:"ashtakavarga"`
	Karakas     []jaimini.Karaka                 `json:"karakas"`
	Padas       jaimini.Padas                    `json:"padas"`
	Sphutas     []sphuta.Point                   `json:"sphutas"`
	Mrityu      []sphuta.Affliction              `json:"mrityu_bhaga"`
	JanmaNak28  int                              `json:"janma_nakshatra_28"`
}

// Dynamic is the time-varying context slice for one window.
type Dynamic struct {
	Window     Window               `json:"window"`
	Dashas     *dasha.Snapshot      `json:"dashas"`
	Transits   *models.ScanResult   `json:"transits"`
	Panchang   *models.Panchang     `json:"panchang,omitempty"`
	KotaCells  map[models.Body]kota.Cell `json:"kota_cells,omitempty"`
	computedAt time.Time
}

// Window bounds a dynamic slice; bucketed to whole days for cache keys.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) bucket() string {
	return w.Start.UTC().Format("2006-01-02") + ".." + w.End.UTC().Format("2006-01-02")
}

type dynKey struct {
	hash   string
	bucket string
}

// Builder owns both cache layers. Safe for concurrent use; concurrent
// misses on the same key collapse into one compute via singleflight.
type Builder struct {
	eng     ephemeris.Engine
	scanner *transit.Scanner
	alm     *panchang.Service
	ttl     time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	static  map[string]*Static
	dynamic map[dynKey]*Dynamic

	group singleflight.Group
}

// Option tunes a Builder.
type Option func(*Builder)

// WithTTL overrides the dynamic-layer TTL (default 24h).
func WithTTL(ttl time.Duration) Option {
	return func(b *Builder) { b.ttl = ttl }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func NewBuilder(eng ephemeris.Engine, opts ...Option) *Builder {
	b := &Builder{
		eng:     eng,
		scanner: transit.NewScanner(eng),
		alm:     panchang.New(eng),
		ttl:     24 * time.Hour,
		now:     time.Now,
		static:  make(map[string]*Static),
		dynamic: make(map[dynKey]*Dynamic),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Static returns the static slice for a birth, computing it at most once
// per hash regardless of concurrent callers.
func (b *Builder) Static(ctx context.Context, birth models.BirthData) (*Static, error) {
	hash := birth.Hash()

	b.mu.RLock()
	if st, ok := b.static[hash]; ok {
		b.mu.RUnlock()
		return st, nil
	}
	b.mu.RUnlock()

	v, err, _ := b.group.Do("static:"+hash, func() (interface{}, error) {
		b.mu.RLock()
		if st, ok := b.static[hash]; ok {
			b.mu.RUnlock()
			return st, nil
		}
		b.mu.RUnlock()

		st, err := b.computeStatic(birth)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.static[hash] = st
		b.mu.Unlock()
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Static), ctx.Err()
}

func (b *Builder) computeStatic(birth models.BirthData) (*Static, error) {
	natal, err := chart.Compute(b.eng, birth)
	if err != nil {
		return nil, err
	}

	st := &Static{
		BirthHash:   birth.Hash(),
		Chart:       natal,
		Divisionals: make(map[int]*models.DivisionalChart, len(varga.Divisions)),
		Nakshatras:  make(map[models.Body]NakshatraInfo, len(natal.Planets)),
		Dignities:   make(map[models.Body]dignity.Grade, len(natal.Planets)),
		JanmaNak28:  -1,
	}

	for _, d := range varga.Divisions {
		dc, err := varga.Chart(natal, d)
		if err != nil {
			return nil, fmt.Errorf("astroctx: D%d: %w", d, err)
		}
		st.Divisionals[d] = dc
	}

	for body, pos := range natal.Planets {
		idx := nakshatra.Index(pos.Longitude)
		st.Nakshatras[body] = NakshatraInfo{
			Index: idx,
			Pada:  nakshatra.Pada(pos.Longitude),
			Name:  nakshatra.Name(idx),
			Lord:  nakshatra.Lord(idx),
		}
		st.Dignities[body] = dignity.Of(body, pos.Longitude)
	}

	st.Shadbala = shadbala.Compute(natal)
	st.Yogas = yoga.Detect(natal)
	st.Ashtaka = ashtakavarga.Compute(natal)
	st.Karakas = jaimini.CharaKarakas(natal, false)
	st.Padas = jaimini.AllPadas(natal)
	st.Sphutas = sphuta.Compute(natal)
	st.Mrityu = sphuta.MrityuBhaga(natal)
	if moon, ok := natal.Planets[models.Moon]; ok {
		st.JanmaNak28 = kota.Index28(moon.Longitude)
	}
	return st, nil
}

// Dynamic returns the windowed slice, recomputing when the cached entry
// is older than the TTL.
func (b *Builder) Dynamic(ctx context.Context, birth models.BirthData, w Window) (*Dynamic, error) {
	key := dynKey{hash: birth.Hash(), bucket: w.bucket()}

	b.mu.RLock()
	if dy, ok := b.dynamic[key]; ok && b.now().Sub(dy.computedAt) < b.ttl {
		b.mu.RUnlock()
		return dy, nil
	}
	b.mu.RUnlock()

	v, err, _ := b.group.Do("dyn:"+key.hash+":"+key.bucket, func() (interface{}, error) {
		b.mu.RLock()
		if dy, ok := b.dynamic[key]; ok && b.now().Sub(dy.computedAt) < b.ttl {
			b.mu.RUnlock()
			return dy, nil
		}
		b.mu.RUnlock()

		dy, err := b.computeDynamic(ctx, birth, w)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.dynamic[key] = dy
		b.mu.Unlock()
		return dy, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dynamic), nil
}

func (b *Builder) computeDynamic(ctx context.Context, birth models.BirthData, w Window) (*Dynamic, error) {
	st, err := b.Static(ctx, birth)
	if err != nil {
		return nil, err
	}

	snap, err := dasha.ActiveAt(st.Chart, b.now())
	if err != nil {
		return nil, err
	}
	scan, err := b.scanner.Scan(ctx, st.Chart, w.Start, w.End, transit.Filters{})
	if err != nil {
		return nil, err
	}

	dy := &Dynamic{
		Window:     w,
		Dashas:     snap,
		Transits:   scan,
		computedAt: b.now(),
	}

	if st.JanmaNak28 >= 0 {
		jd := ephemeris.JulianDay(b.now().UTC())
		cells := make(map[models.Body]models.Position)
		for _, tb := range transit.DefaultTransitBodies {
			if pos, err := b.eng.Position(tb, jd); err == nil {
				cells[tb] = pos
			}
		}
		if moon, ok := st.Chart.Planets[models.Moon]; ok {
			dy.KotaCells = kota.Report(moon.Longitude, cells)
		}
	}

	if tz := birth.TZOffset; tz != nil {
		alm, err := b.alm.Compute(b.now().UTC().Format("2006-01-02"), birth.Lat, birth.Lon, *tz)
		if err == nil {
			dy.Panchang = alm
		}
	}
	return dy, nil
}

// Invalidate evicts both layers for a birth hash; used by explicit
// chart regeneration.
func (b *Builder) Invalidate(hash string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.static, hash)
	for k := range b.dynamic {
		if k.hash == hash {
			delete(b.dynamic, k)
		}
	}
}
