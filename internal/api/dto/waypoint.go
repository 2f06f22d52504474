package dto

type WaypointResponse struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type ListWaypointsResponse struct {
	Waypoints []WaypointResponse `json:"waypoints"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Waypoints   int    `json:"waypoints"`
	RailNetwork bool   `json:"rail_network"`
}
