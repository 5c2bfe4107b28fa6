package logging

import "strings"

// unknownTotalStep is the byte interval sampled when a transfer's size is
// not known up front.
const unknownTotalStep = 8 << 20

// ProgressSampler thins out progress events to one per bucket. A bucket is a
// bucketSize slice of the percentage range, or unknownTotalStep bytes when
// the total is unknown. A phase change always emits and restarts buckets.
// A nil sampler emits everything.
type ProgressSampler struct {
	bucketSize float64
	phase      string
	bucket     int
}

// NewProgressSampler returns a sampler with bucketSize percent buckets
// (5 when bucketSize <= 0).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, bucket: -1}
}

// ShouldLog samples percentage progress. A negative percent means unknown
// and only a phase change emits.
func (s *ProgressSampler) ShouldLog(percent float64, phase string) bool {
	if s == nil {
		return true
	}
	bucket := -1
	if percent >= 0 {
		bucket = int(min(percent, 100) / s.bucketSize)
	}
	return s.advance(phase, bucket, -1)
}

// ShouldLogBytes samples byte-count progress against total, which may be
// <= 0 when unknown.
func (s *ProgressSampler) ShouldLogBytes(done, total int64, phase string) bool {
	if total > 0 {
		return s.ShouldLog(float64(done)*100/float64(total), phase)
	}
	if s == nil {
		return true
	}
	bucket := int(done / unknownTotalStep)
	return s.advance(phase, bucket, bucket)
}

// advance records bucket and reports whether it or the phase moved on. On a
// phase change the bucket restarts at resetTo.
func (s *ProgressSampler) advance(phase string, bucket, resetTo int) bool {
	if phase = strings.TrimSpace(phase); phase != "" && phase != s.phase {
		s.phase = phase
		s.bucket = max(resetTo, bucket)
		return true
	}
	if bucket > s.bucket {
		s.bucket = bucket
		return true
	}
	return false
}

// Reset forgets the last phase and bucket.
func (s *ProgressSampler) Reset() {
	if s != nil {
		s.phase, s.bucket = "", -1
	}
}
