package models

type FlightResponse struct {
	Key              string `json:"key"`
	Airline          string `json:"airline"`
	Code             string `json:"code"`
	Timestamp        int64  `json:"timestamp"`
	IsRegistered     bool   `json:"is_registered"`
	StatusCode       uint8  `json:"status_code"`
	UpdatedTimestamp int64  `json:"updated_timestamp"`
}

type FlightListResponse struct {
	Flights []FlightResponse `json:"flights"`
}

func NewFlightResponse(f *Flight) FlightResponse {
	return FlightResponse{
		Key:              f.Key.String(),
		Airline:          f.Airline.String(),
		Code:             f.Code,
		Timestamp:        f.Timestamp,
		IsRegistered:     f.IsRegistered,
		StatusCode:       f.StatusCode,
		UpdatedTimestamp: f.UpdatedTimestamp,
	}
}
