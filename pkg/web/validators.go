package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// dateLayout is the wire format for report range query parameters.
const dateLayout = "2006-01-02"

// ParseDate extracts a required YYYY-MM-DD query parameter and interprets it in
// the local time zone. Returns the parsed date and a boolean indicating success.
func ParseDate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (time.Time, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s date: %s", key, value))
		return time.Time{}, false
	}
	return parsed, true
}

// ParseOptionalInt extracts an optional integer query parameter, falling back
// to def when absent. Returns the value and a boolean indicating success.
func ParseOptionalInt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def int) (int, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return parsed, true
}
