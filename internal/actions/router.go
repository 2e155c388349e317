// Package actions is the single-endpoint dispatcher. Every request is
// a JSON body with an action name; admin actions pass the gate first.
package actions

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	attsvc "github.com/attendly/attendance-backend/internal/attendance/service"
	paysvc "github.com/attendly/attendance-backend/internal/payroll/service"
	apperrors "github.com/attendly/attendance-backend/pkg/errors"
	"github.com/attendly/attendance-backend/pkg/httputil"
	"github.com/attendly/attendance-backend/pkg/logger"
)

const maxBodyBytes = 1 << 20

// AdminGate authorizes admin-only actions.
type AdminGate interface {
	RequireAdmin(ctx context.Context, callerID string) error
}

// adminActions must pass the gate before their handler runs.
var adminActions = map[string]bool{
	"create-employee":     true,
	"modify-attendance":   true,
	"reset-device":        true,
	"create-holiday":      true,
	"delete-holiday":      true,
	"add-office-location": true,
	"generate-payroll":    true,
	"unlock-payroll":      true,
	"delete-payroll":      true,
	"get-payroll-report":  true,
}

// Router dispatches actions to the engines.
type Router struct {
	attendance *attsvc.Service
	payroll    *paysvc.Service
	gate       AdminGate
	log        *logger.Logger
}

// NewRouter creates the action router
func NewRouter(attendance *attsvc.Service, payroll *paysvc.Service, gate AdminGate, log *logger.Logger) *Router {
	return &Router{
		attendance: attendance,
		payroll:    payroll,
		gate:       gate,
		log:        log.WithComponent("actions"),
	}
}

// Handle is the POST /api/v1/actions handler.
func (rt *Router) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httputil.Fail(w, apperrors.BadRequest("failed to read request body"))
		return
	}
	defer r.Body.Close()

	var env actionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		httputil.Fail(w, apperrors.BadRequest("invalid JSON body"))
		return
	}
	if env.Action == "" {
		httputil.Fail(w, apperrors.BadRequest("action is required"))
		return
	}

	ctx := r.Context()
	callerID := httputil.GetCallerID(ctx)
	log := rt.log.WithAction(env.Action).WithActor(callerID)

	if adminActions[env.Action] {
		if err := rt.gate.RequireAdmin(ctx, callerID); err != nil {
			log.Warn().Msg("admin gate refused")
			httputil.Fail(w, err)
			return
		}
	}

	if err := rt.dispatch(ctx, w, env.Action, callerID, body); err != nil {
		log.Warn().Err(err).Msg("action failed")
		httputil.Fail(w, err)
	}
}

func decode(body []byte, dst interface{}) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequest("invalid JSON body")
	}
	return httputil.Validate(dst)
}

// dispatch runs the action handler. A nil return means the handler
// already wrote a success envelope.
func (rt *Router) dispatch(ctx context.Context, w http.ResponseWriter, action, callerID string, body []byte) error {
	switch action {
	case "check-in":
		var req checkRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		att, err := rt.attendance.CheckIn(ctx, req.Email, req.Signature, req.DataToVerify, req.Location)
		if err != nil {
			return err
		}
		httputil.OK(w, "Checked in successfully", att)

	case "check-out":
		var req checkRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		att, err := rt.attendance.CheckOut(ctx, req.Email, req.Signature, req.DataToVerify, req.Location)
		if err != nil {
			return err
		}
		httputil.OK(w, "Checked out successfully", map[string]interface{}{
			"status":    att.Status,
			"workHours": att.WorkHours,
		})

	case "register-device":
		var req registerDeviceRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		if err := rt.attendance.RegisterDevice(ctx, req.Email, req.PublicKey, req.DeviceFingerprint); err != nil {
			return err
		}
		httputil.OK(w, "Device registered", nil)

	case "get-my-attendance":
		var req myAttendanceRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		rows, err := rt.attendance.MyAttendance(ctx, callerID, req.Month)
		if err != nil {
			return err
		}
		httputil.OK(w, "", rows)

	case "get-system-info":
		httputil.OK(w, "", rt.attendance.SystemInfo())

	case "create-employee":
		var req createEmployeeRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		emp, err := rt.attendance.CreateEmployee(ctx, callerID, attsvc.CreateEmployeeInput{
			Email:    req.Data.Email,
			Password: req.Data.Password,
			Name:     req.Data.Name,
			Salary:   req.Data.Salary,
			JoinDate: req.Data.JoinDate,
		})
		if err != nil {
			return err
		}
		httputil.OK(w, "Employee created", emp)

	case "modify-attendance":
		var req modifyAttendanceRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		att, err := rt.attendance.ModifyAttendance(ctx, callerID, req.AttendanceID, req.Reason, req.Modifications)
		if err != nil {
			return err
		}
		httputil.OK(w, "Attendance modified", att)

	case "reset-device":
		var req resetDeviceRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		if err := rt.attendance.ResetDevice(ctx, callerID, req.EmployeeID, req.Reason); err != nil {
			return err
		}
		httputil.OK(w, "Device reset", nil)

	case "create-holiday":
		var req createHolidayRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		h, err := rt.attendance.CreateHoliday(ctx, callerID, req.Date, req.Name, req.Description)
		if err != nil {
			return err
		}
		httputil.OK(w, "Holiday created", h)

	case "delete-holiday":
		var req deleteHolidayRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		if err := rt.attendance.DeleteHoliday(ctx, callerID, req.HolidayID); err != nil {
			return err
		}
		httputil.OK(w, "Holiday deleted", nil)

	case "add-office-location":
		var req addOfficeLocationRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		loc, err := rt.attendance.AddOfficeLocation(ctx, callerID, req.Name, req.Latitude, req.Longitude, req.RadiusMeters)
		if err != nil {
			return err
		}
		httputil.OK(w, "Office location added", loc)

	case "generate-payroll":
		var req monthRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		result, err := rt.payroll.Generate(ctx, callerID, req.Month)
		if err != nil {
			return err
		}
		httputil.OK(w, "Payroll generated", result)

	case "unlock-payroll":
		var req monthRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		count, err := rt.payroll.Unlock(ctx, callerID, req.Month, req.Reason)
		if err != nil {
			return err
		}
		httputil.OK(w, "Payroll unlocked", map[string]int{"unlocked": count})

	case "delete-payroll":
		var req monthRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		result, err := rt.payroll.Delete(ctx, callerID, req.Month, req.Reason)
		if err != nil {
			return err
		}
		httputil.OK(w, "Payroll deleted", result)

	case "get-payroll-report":
		var req monthRequest
		if err := decode(body, &req); err != nil {
			return err
		}
		report, err := rt.payroll.GetReport(ctx, req.Month)
		if err != nil {
			return err
		}
		httputil.OK(w, "", report)

	default:
		return apperrors.InvalidAction(action)
	}

	return nil
}
