package metrics

// Wrapper adapts Metrics to the recorder interface the pipeline consumes,
// keeping the pipeline free of a direct Prometheus dependency.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) EventsClassifiedAdd(n int) { w.m.EventsClassified.Add(float64(n)) }
func (w *Wrapper) HFOsAdd(n int)             { w.m.HFOsDetected.Add(float64(n)) }
func (w *Wrapper) ArtifactsAdd(n int)        { w.m.ArtifactsFound.Add(float64(n)) }
func (w *Wrapper) NaNEventsAdd(n int)        { w.m.NaNEvents.Add(float64(n)) }
func (w *Wrapper) BadChanEventsAdd(n int)    { w.m.BadChanEvents.Add(float64(n)) }
func (w *Wrapper) LoadErrorsInc()            { w.m.LoadErrors.Inc() }
func (w *Wrapper) DurationObserve(s float64) { w.m.ClassifyDuration.Observe(s) }
func (w *Wrapper) ScoreObserve(s float64)    { w.m.ScoreDistribution.Observe(s) }
func (w *Wrapper) ModelAgeSet(s float64)     { w.m.ModelAge.Set(s) }
