package decoder

// Rejection explains why a frame produced no record. Rejections are frame
// local: the caller drops the frame and moves on.
type Rejection uint8

const (
	ErrMalformedIPHeader Rejection = iota + 1
	ErrMalformedTCPHeader
	ErrTruncatedHeader
	ErrInconsistentLength
	ErrEmptyPayloadFiltered
	ErrUnmatchedFlow
)

var rejectionNames = [...]string{
	ErrMalformedIPHeader:    "malformed_ip_header",
	ErrMalformedTCPHeader:   "malformed_tcp_header",
	ErrTruncatedHeader:      "truncated_header",
	ErrInconsistentLength:   "inconsistent_length",
	ErrEmptyPayloadFiltered: "empty_payload_filtered",
	ErrUnmatchedFlow:        "unmatched_flow",
}

// Rejections lists every rejection kind, in declaration order.
var Rejections = []Rejection{
	ErrMalformedIPHeader,
	ErrMalformedTCPHeader,
	ErrTruncatedHeader,
	ErrInconsistentLength,
	ErrEmptyPayloadFiltered,
	ErrUnmatchedFlow,
}

// Name is a stable identifier suitable for metric names.
func (r Rejection) Name() string {
	if int(r) < len(rejectionNames) && rejectionNames[r] != "" {
		return rejectionNames[r]
	}
	return "unknown"
}

func (r Rejection) Error() string {
	return "decoder: " + r.Name()
}

// Malformed reports whether the rejection signals a bad frame rather than a
// policy decision.
func (r Rejection) Malformed() bool {
	return r != ErrEmptyPayloadFiltered && r != ErrUnmatchedFlow
}
