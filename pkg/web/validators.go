package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

// inRange returns a ParamValidator that checks if the argument lies within [low, high].
func inRange(low, high int64) ParamValidator {
	return func(argValue int64) bool {
		return argValue >= low && argValue <= high
	}
}

// gte returns a ParamValidator that checks if the argument is greater than or equal to the given value.
func gte(valToCompareAgainst int64) ParamValidator {
	return func(argValue int64) bool {
		return argValue >= valToCompareAgainst
	}
}

// ParseValidateRange parses an optional query parameter and validates it against [low, high].
// When the parameter is absent, def is returned.
func ParseValidateRange(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def, low, high int64) (int32, bool) {
	return parseValidate(r, w, logger, key, def, inRange(low, high))
}

// ParseValidateGte parses an optional query parameter and validates it is >= value.
// When the parameter is absent, def is returned.
func ParseValidateGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def, value int64) (int32, bool) {
	return parseValidate(r, w, logger, key, def, gte(value))
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def int64, pValidator ParamValidator) (int32, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return int32(def), true
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int32(intValue), true
}
