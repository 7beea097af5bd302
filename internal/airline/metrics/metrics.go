package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CandidatesAdded prometheus.Counter
	VotesRecorded   prometheus.Counter
	VotesRepeated   prometheus.Counter
	Promotions      prometheus.Counter
	Fundings        prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CandidatesAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_airline_candidates_total",
			Help: "Airline identities added to the registry",
		}),
		VotesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_airline_votes_total",
			Help: "Votes counted toward a candidate tally",
		}),
		VotesRepeated: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_airline_votes_repeated_total",
			Help: "Vote calls ignored because the voter had already voted for the candidate",
		}),
		Promotions: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_airline_promotions_total",
			Help: "Candidates promoted to registered airlines",
		}),
		Fundings: factory.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_airline_fundings_total",
			Help: "Airlines that submitted funding",
		}),
	}
}

func (m *Metrics) IncrementCandidatesAdded() { m.CandidatesAdded.Inc() }
func (m *Metrics) IncrementVotesRecorded()   { m.VotesRecorded.Inc() }
func (m *Metrics) IncrementVotesRepeated()   { m.VotesRepeated.Inc() }
func (m *Metrics) IncrementPromotions()      { m.Promotions.Inc() }
func (m *Metrics) IncrementFundings()        { m.Fundings.Inc() }
