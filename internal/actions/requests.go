package actions

import (
	attsvc "github.com/attendly/attendance-backend/internal/attendance/service"
)

type actionEnvelope struct {
	Action string `json:"action" validate:"required"`
}

type checkRequest struct {
	Email        string          `json:"email" validate:"required,email"`
	Signature    string          `json:"signature" validate:"required"`
	DataToVerify string          `json:"dataToVerify" validate:"required"`
	Location     *attsvc.Location `json:"location,omitempty"`
}

type registerDeviceRequest struct {
	Email             string `json:"email" validate:"required,email"`
	PublicKey         string `json:"publicKey" validate:"required"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
}

type myAttendanceRequest struct {
	Month string `json:"month,omitempty"`
}

type createEmployeeRequest struct {
	Data struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Name     string `json:"name" validate:"required"`
		Salary   int64  `json:"salary" validate:"required,gt=0"`
		JoinDate string `json:"joinDate,omitempty"`
	} `json:"data" validate:"required"`
}

type modifyAttendanceRequest struct {
	AttendanceID  string               `json:"attendanceId" validate:"required"`
	Reason        string               `json:"reason" validate:"required"`
	Modifications attsvc.Modifications `json:"modifications"`
}

type resetDeviceRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

type createHolidayRequest struct {
	Date        string `json:"date" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

type deleteHolidayRequest struct {
	HolidayID string `json:"holidayId" validate:"required"`
}

type addOfficeLocationRequest struct {
	Name         string   `json:"name" validate:"required"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	RadiusMeters *float64 `json:"radiusMeters,omitempty"`
}

type monthRequest struct {
	Month  string `json:"month,omitempty"`
	Reason string `json:"reason,omitempty"`
}
