package httpapi

import (
	"errors"
	"strconv"
	"strings"
)

var errMalformedRange = errors.New("malformed range")
var errUnsatisfiableRange = errors.New("unsatisfiable range")

// parseRange resolves a single contiguous byte-range header against an
// object of the given size. Supported forms are "bytes=a-b", "bytes=a-"
// and the suffix form "bytes=-n". Multipart ranges are not supported and
// parse as malformed.
func parseRange(spec string, size int64) (start, end int64, err error) {
	const prefix = "bytes="
	if !strings.HasPrefix(spec, prefix) {
		return 0, 0, errMalformedRange
	}
	spec = strings.TrimPrefix(spec, prefix)

	if strings.Contains(spec, ",") {
		return 0, 0, errMalformedRange
	}

	first, last, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, errMalformedRange
	}

	if first == "" {
		// Suffix form: the final n bytes.
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, errMalformedRange
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil
	}

	start, err = strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, errMalformedRange
	}

	if last == "" {
		end = size - 1
	} else {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return 0, 0, errMalformedRange
		}
		if end >= size {
			end = size - 1
		}
	}

	if start >= size {
		return 0, 0, errUnsatisfiableRange
	}

	return start, end, nil
}
