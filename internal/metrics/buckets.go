package metrics

// Confidence bucket labels, lower bound inclusive.
const (
	BucketBelow60 = "<60"
	Bucket60      = "60-69"
	Bucket70      = "70-79"
	Bucket80      = "80-89"
	Bucket90      = "90+"
)

// BucketOrder is the fixed report order of confidence buckets.
var BucketOrder = []string{BucketBelow60, Bucket60, Bucket70, Bucket80, Bucket90}

// ConfidenceBucket maps a 0-100 confidence score to its bucket.
func ConfidenceBucket(confidence float64) string {
	switch {
	case confidence >= 90:
		return Bucket90
	case confidence >= 80:
		return Bucket80
	case confidence >= 70:
		return Bucket70
	case confidence >= 60:
		return Bucket60
	default:
		return BucketBelow60
	}
}
