package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordResolution forwards the record to all sinks. Every sink is tried;
// the errors are joined.
func (m *MultiSink) RecordResolution(r Resolution) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordResolution(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordBidRejection forwards to the sinks that record rejections.
func (m *MultiSink) RecordBidRejection(r BidRejection) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(BidRejectionRecorder); ok {
			if err := rec.RecordBidRejection(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordAward forwards to the sinks that record awards.
func (m *MultiSink) RecordAward(a Award) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(AwardRecorder); ok {
			if err := rec.RecordAward(a); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}
