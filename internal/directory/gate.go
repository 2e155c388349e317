package directory

import (
	"context"

	apperrors "github.com/attendly/attendance-backend/pkg/errors"
	"github.com/attendly/attendance-backend/pkg/logger"
)

// MembershipCounter is the directory capability the gate needs.
type MembershipCounter interface {
	CountTeamMemberships(ctx context.Context, teamID, userID string) (int, error)
}

// Gate authorizes admin-only actions against the admin team.
type Gate struct {
	directory   MembershipCounter
	adminTeamID string
	log         *logger.Logger
}

// NewGate creates an admin gate
func NewGate(directory MembershipCounter, adminTeamID string, log *logger.Logger) *Gate {
	return &Gate{
		directory:   directory,
		adminTeamID: adminTeamID,
		log:         log.WithComponent("admin-gate"),
	}
}

// RequireAdmin returns nil iff the caller holds a membership in the
// admin team. A missing caller id or missing team configuration is a
// refusal, not an infrastructure error.
func (g *Gate) RequireAdmin(ctx context.Context, callerID string) error {
	if callerID == "" || g.adminTeamID == "" {
		return apperrors.AdminRequired()
	}

	count, err := g.directory.CountTeamMemberships(ctx, g.adminTeamID, callerID)
	if err != nil {
		g.log.Error().Err(err).Str("caller_id", callerID).Msg("admin membership lookup failed")
		return apperrors.AdminRequired()
	}

	if count == 0 {
		return apperrors.AdminRequired()
	}
	return nil
}
