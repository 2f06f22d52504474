package dto

// Coordinates are accepted and returned as named fields; path geometry uses [lon, lat] pairs.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PlaceRequest identifies a place by coordinates, by dataset name, or by a
// free-text name geocoded with Fallback when the dataset does not know it.
type PlaceRequest struct {
	Label    string       `json:"label,omitempty"`
	Name     string       `json:"name,omitempty"`
	Lat      *float64     `json:"lat,omitempty"`
	Lon      *float64     `json:"lon,omitempty"`
	Fallback *Coordinates `json:"fallback,omitempty"`
}

type SpeedsRequest struct {
	Sea  *float64 `json:"sea,omitempty"`
	Rail *float64 `json:"rail,omitempty"`
	Road *float64 `json:"road,omitempty"`
}

type ItineraryRequest struct {
	EntryPort                      string         `json:"entry_port"`
	Origin                         PlaceRequest   `json:"origin"`
	Destination                    PlaceRequest   `json:"destination"`
	DestinationIsInternationalPort bool           `json:"destination_is_international_port"`
	UseRailCorridor                bool           `json:"use_rail_corridor"`
	Intermediate                   *PlaceRequest  `json:"intermediate_node,omitempty"`
	Speeds                         *SpeedsRequest `json:"speeds,omitempty"`
}

type SegmentResponse struct {
	Mode       string      `json:"mode"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	DistanceKm float64     `json:"distance_km"`
	DurationH  float64     `json:"duration_h"`
	Path       [][]float64 `json:"path"`
}

type ItineraryResponse struct {
	Segments          []SegmentResponse `json:"segments"`
	TotalDistanceKm   float64           `json:"total_distance_km"`
	TotalDurationH    float64           `json:"total_duration_h"`
	TotalDurationDays float64           `json:"total_duration_days"`
}

type ComparisonResponse struct {
	Primary         ItineraryResponse `json:"primary"`
	Alternative     ItineraryResponse `json:"alternative"`
	DeltaDistanceKm float64           `json:"delta_distance_km"`
	DeltaDurationH  float64           `json:"delta_duration_h"`
}
