package api

// Client-facing validation messages.
const (
	msgMissingCoordinates = "Missing latitude or longitude"
	msgInvalidFormat      = "Invalid latitude/longitude format"
	msgLatitudeRange      = "Latitude must be between -90 and 90"
	msgLongitudeRange     = "Longitude must be between -180 and 180"
	msgTooManyRequests    = "Too many requests"
	msgMethodNotAllowed   = "Method not allowed"
)
