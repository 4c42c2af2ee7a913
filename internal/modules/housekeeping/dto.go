package housekeeping

type AssignRequest struct {
	StaffID int64 `json:"staffId"`
}

type CancelRequest struct {
	Confirmed     bool  `json:"confirmed"`
	BookingRoomID int64 `json:"bookingRoomId"`
}
