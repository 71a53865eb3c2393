package capture

// Timestamp source names as reported by libpcap.
const (
	TimestampHost            = "host"
	TimestampHostLowPrec     = "host_lowprec"
	TimestampHostHiPrec      = "host_hiprec"
	TimestampAdapter         = "adapter"
	TimestampAdapterUnsynced = "adapter_unsynced"
)

// BestTimestampSource picks the preferred timestamp source among names.
//
// Preference: adapter_unsynced, then adapter, then host_hiprec. Once
// adapter_unsynced has been seen nothing replaces it, and adapter is never
// replaced by host_hiprec. host and host_lowprec are the libpcap default and
// are never requested explicitly, nor are unknown names.
func BestTimestampSource(names []string) (string, bool) {
	best := ""
	for _, name := range names {
		switch name {
		case TimestampHostHiPrec:
			if best != TimestampAdapterUnsynced && best != TimestampAdapter {
				best = name
			}
		case TimestampAdapter:
			if best != TimestampAdapterUnsynced {
				best = name
			}
		case TimestampAdapterUnsynced:
			best = name
		}
	}
	return best, best != ""
}
