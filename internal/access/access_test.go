package access

import "time"

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
