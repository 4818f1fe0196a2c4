package grpcapp

import (
	"strings"

	"estatemetrics/internal/interceptors"
)

var sensitiveKeys = map[string]bool{
	"password":         true,
	"pwd":              true,
	"pass":             true,
	"current_password": true,
	"new_password":     true,
	"access_token":     true,
	"refresh_token":    true,
	"token":            true,
	"authorization":    true,
	"x-api-key":        true,
	"api_key":          true,
}

// maskSensitiveFields masks the values of secret keys in a flat key/value list.
func maskSensitiveFields(fields []any) []any {
	for i := 0; i < len(fields)-1; i += 2 {
		key, ok := fields[i].(string)
		if !ok || !sensitiveKeys[strings.ToLower(key)] {
			continue
		}
		if v, ok := fields[i+1].(string); ok {
			fields[i+1] = interceptors.Mask(v)
		}
	}
	return fields
}
