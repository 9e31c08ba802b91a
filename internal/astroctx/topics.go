package astroctx

import (
	"context"
	"errors"

	"github.com/saptarishi/jyotishai/internal/transit"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// Topic identifies one curated context schema.
type Topic string

const (
	TopicCareer   Topic = "career"
	TopicMarriage Topic = "marriage"
	TopicWealth   Topic = "wealth"
	TopicHealth   Topic = "health"
	TopicProgeny  Topic = "progeny"
)

var ErrUnknownTopic = errors.New("astroctx: unknown topic")

// Topics lists the supported topic tags.
func Topics() []Topic {
	return []Topic{TopicCareer, TopicMarriage, TopicWealth, TopicHealth, TopicProgeny}
}

// topicDivisions selects the divisional charts each topic reads.
var topicDivisions = map[Topic][]int{
	TopicCareer:   {1, 9, 10},
	TopicMarriage: {1, 9, 7},
	TopicWealth:   {1, 2, 9},
	TopicHealth:   {1, 9, 30},
	TopicProgeny:  {1, 7, 9},
}

// topicHouses are the primary houses each topic reasons over.
var topicHouses = map[Topic][]int{
	TopicCareer:   {1, 2, 6, 10, 11},
	TopicMarriage: {1, 2, 7, 8, 12},
	TopicWealth:   {1, 2, 5, 9, 11},
	TopicHealth:   {1, 6, 8, 12},
	TopicProgeny:  {1, 5, 9},
}

// TopicContext is the stable JSON object handed to the LLM layer.
type TopicContext struct {
	Topic       Topic                            `json:"topic"`
	BirthHash   string                           `json:"birth_hash"`
	Chart       *models.NatalChart               `json:"chart"`
	Divisionals map[int]*models.DivisionalChart  `json:"divisional_charts"`
	Houses      []int                            `json:"focus_houses"`
	HouseLords  map[int]models.Body              `json:"house_lords"`
	Static      map[string]interface{}           `json:"static"`
	Dynamic     *Dynamic                         `json:"dynamic,omitempty"`
}

// Topic assembles the curated context for one topic. The dynamic slice
// is attached only when a window is supplied.
func (b *Builder) Topic(ctx context.Context, topic Topic, birth models.BirthData, window *Window) (*TopicContext, error) {
	divs, ok := topicDivisions[topic]
	if !ok {
		return nil, ErrUnknownTopic
	}

	st, err := b.Static(ctx, birth)
	if err != nil {
		return nil, err
	}

	tc := &TopicContext{
		Topic:       topic,
		BirthHash:   st.BirthHash,
		Chart:       st.Chart,
		Divisionals: make(map[int]*models.DivisionalChart, len(divs)),
		Houses:      topicHouses[topic],
		HouseLords:  make(map[int]models.Body),
		Static:      make(map[string]interface{}),
	}
	for _, d := range divs {
		if dc, ok := st.Divisionals[d]; ok {
			tc.Divisionals[d] = dc
		}
	}
	for _, h := range topicHouses[topic] {
		tc.HouseLords[h] = models.SignLord(st.Chart.SignOfHouse(h))
	}

	// Common static fields every topic carries.
	tc.Static["nakshatras"] = st.Nakshatras
	tc.Static["dignities"] = st.Dignities
	tc.Static["yogas"] = st.Yogas

	switch topic {
	case TopicCareer:
		tc.Static["shadbala"] = st.Shadbala
		tc.Static["karakas"] = st.Karakas
		tc.Static["ashtakavarga"] = st.Ashtaka
	case TopicMarriage:
		tc.Static["padas"] = st.Padas
		tc.Static["karakas"] = st.Karakas
	case TopicWealth:
		tc.Static["shadbala"] = st.Shadbala
		tc.Static["ashtakavarga"] = st.Ashtaka
		tc.Static["padas"] = st.Padas
	case TopicHealth:
		tc.Static["mrityu_bhaga"] = st.Mrityu
		tc.Static["shadbala"] = st.Shadbala
		tc.Static["janma_nakshatra_28"] = st.JanmaNak28
	case TopicProgeny:
		tc.Static["sphutas"] = st.Sphutas
		tc.Static["padas"] = st.Padas
	}

	if window != nil {
		dy, err := b.Dynamic(ctx, birth, *window)
		if err != nil {
			return nil, err
		}
		tc.Dynamic = dy
		if topic == TopicMarriage && dy.Transits != nil {
			tc.Static["double_transit_7th"] = transit.DoubleTransit(
				dy.Transits.Activations, st.Chart, 7)
		}
	}
	return tc, nil
}
