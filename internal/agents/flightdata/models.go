// internal/agents/flightdata/models.go
package flightdata

// schedulePayload is the upstream flight schedule response shape.
type schedulePayload struct {
	ScheduledFlights []scheduledFlight `json:"scheduledFlights"`
	Appendix         appendix          `json:"appendix"`
}

type scheduledFlight struct {
	CarrierFsCode          string `json:"carrierFsCode"`
	FlightNumber           string `json:"flightNumber"`
	DepartureAirportFsCode string `json:"departureAirportFsCode"`
	ArrivalAirportFsCode   string `json:"arrivalAirportFsCode"`
	DepartureTime          string `json:"departureTime"`
	ArrivalTime            string `json:"arrivalTime"`
}

type appendix struct {
	Airports []airport `json:"airports"`
}

type airport struct {
	Fs   string `json:"fs"`
	City string `json:"city"`
	Name string `json:"name"`
}

// quotePayload is the upstream quote/statistics response shape. The
// statistics array is ordered [onTime, delayed, cancelled, diverted].
type quotePayload struct {
	OnTimePercent *float64 `json:"ontimepercent"`
	Statistics    []int    `json:"statistics"`
	Premium       float64  `json:"premium"`
}
