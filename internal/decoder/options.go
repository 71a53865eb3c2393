package decoder

// TCP option kinds (RFC 9293, RFC 7323).
const (
	optionEndOfList = 0
	optionNOP       = 1
	optionTimestamp = 8
)

// TimestampOption scans a TCP options area for the timestamp option and
// returns its TSval. The scan gives up, reporting no timestamp, at the end of
// the area, on an end-of-list option, or on an option whose length byte is
// missing or smaller than 2.
func TimestampOption(opts View) (uint32, bool) {
	for i := 0; i < opts.Len(); {
		kind, _ := opts.Uint8(i)
		switch kind {
		case optionEndOfList:
			return 0, false
		case optionNOP:
			i++
			continue
		}

		size, ok := opts.Uint8(i + 1)
		if !ok {
			return 0, false
		}
		if kind == optionTimestamp {
			// The length byte is not checked: any kind 8 option yields the
			// 4 bytes after kind and length.
			return opts.Uint32(i + 2)
		}
		if size < 2 {
			return 0, false
		}
		i += int(size)
	}
	return 0, false
}
