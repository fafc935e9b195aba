package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizmanager/internal/models"
	"bizmanager/internal/observability/metrics"
)

type updateState int

const (
	stateNotStarted updateState = iota
	stateIdentityUpdated
	statePersisted
	stateRollbackAttempted
	stateRollbackSucceeded
	stateRollbackFailed
)

func (s updateState) String() string {
	switch s {
	case stateNotStarted:
		return "not_started"
	case stateIdentityUpdated:
		return "identity_updated"
	case statePersisted:
		return "persisted"
	case stateRollbackAttempted:
		return "rollback_attempted"
	case stateRollbackSucceeded:
		return "rollback_succeeded"
	case stateRollbackFailed:
		return "rollback_failed"
	}
	return "unknown"
}

// demographicsUpdate carries one staged update through its states. The
// previous email is captured before anything leaves the process so that a
// rollback always has the real prior address.
type demographicsUpdate struct {
	user             *models.User
	previousEmail    models.Email
	newName          *models.Name
	newEmail         *models.Email
	state            updateState
	rollbackAttempts int
}

func (u *demographicsUpdate) changed() bool {
	return u.newName != nil || u.newEmail != nil
}

// stageDemographicsUpdate validates the requested values against the current
// user. Blank or absent fields keep their current value.
func stageDemographicsUpdate(user *models.User, req UpdateDemographicsRequest) (*demographicsUpdate, error) {
	update := &demographicsUpdate{user: user, previousEmail: user.Email()}

	current := user.Name()
	first := pick(req.FirstName, current.First())
	last := pick(req.LastName, current.Last())
	if first != current.First() || last != current.Last() {
		name, err := models.NewName(first, last)
		if err != nil {
			return nil, err
		}
		update.newName = &name
	}

	if req.EmailAddress != nil && strings.TrimSpace(*req.EmailAddress) != "" {
		email, err := models.NewEmail(*req.EmailAddress)
		if err != nil {
			return nil, err
		}
		if email.String() != user.Email().String() {
			update.newEmail = &email
		}
	}
	return update, nil
}

func pick(requested *string, current string) string {
	if requested == nil || strings.TrimSpace(*requested) == "" {
		return current
	}
	return strings.TrimSpace(*requested)
}

// runDemographicsUpdate moves an update through
// NotStarted -> IdentityUpdated -> Persisted. The identity provider goes first
// so its failure leaves nothing to undo. A failed local write after the
// provider accepted the change triggers compensate.
func (s *userService) runDemographicsUpdate(ctx context.Context, u *demographicsUpdate) error {
	ref := u.user.IdentityRef()

	if u.newEmail != nil {
		if err := s.idp.UpdateEmail(ctx, ref, *u.newEmail); err != nil {
			return models.NewIdentityProviderError("update identity provider email", err)
		}
		u.state = stateIdentityUpdated
	}

	if u.newName != nil {
		u.user.SetName(*u.newName)
	}
	if u.newEmail != nil {
		u.user.SetEmail(*u.newEmail)
	}

	if err := s.userRepo.UpdateDemographics(ctx, u.user); err != nil {
		if u.state != stateIdentityUpdated {
			return models.NewPersistenceError("update user demographics", err)
		}
		return s.compensate(ctx, u, err)
	}

	u.state = statePersisted
	s.logger.InfoContext(ctx, "user demographics updated", "user_id", u.user.ID(), "email_changed", u.newEmail != nil)
	return nil
}

// compensate reverts the identity provider email to the previous address,
// trying at most rollback.MaxAttempts times with a fixed delay. It runs on
// a context detached from the request's cancellation but bounded by
// rollback.Timeout, and each attempt gets its own rollback.AttemptTimeout so
// one hung call cannot consume the whole budget.
func (s *userService) compensate(ctx context.Context, u *demographicsUpdate, cause error) error {
	ref := u.user.IdentityRef()
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.rollback.Timeout)
	defer cancel()

	var lastErr error
attempts:
	for attempt := 1; attempt <= s.rollback.MaxAttempts; attempt++ {
		u.state = stateRollbackAttempted
		u.rollbackAttempts = attempt

		attemptCtx, cancelAttempt := context.WithTimeout(rbCtx, s.rollback.AttemptTimeout)
		lastErr = s.idp.UpdateEmail(attemptCtx, ref, u.previousEmail)
		cancelAttempt()
		if lastErr == nil {
			u.state = stateRollbackSucceeded
			metrics.ObserveEmailRollback("succeeded")
			s.logger.WarnContext(ctx, "identity provider email rolled back after failed local update",
				"user_id", u.user.ID(), "attempts", attempt)
			return models.NewPersistenceError("local update failed, identity provider email was reverted", cause)
		}

		if attempt == s.rollback.MaxAttempts {
			break
		}
		s.logger.WarnContext(ctx, "identity provider email rollback failed, retrying",
			"user_id", u.user.ID(),
			"identity_ref", ref.String(),
			"attempt", attempt,
			"max_attempts", s.rollback.MaxAttempts,
			"error", lastErr,
		)

		timer := time.NewTimer(s.rollback.Delay)
		select {
		case <-timer.C:
		case <-rbCtx.Done():
			timer.Stop()
			lastErr = fmt.Errorf("%w (rollback deadline: %v)", lastErr, rbCtx.Err())
			break attempts
		}
	}

	u.state = stateRollbackFailed
	metrics.ObserveEmailRollback("failed")
	s.logger.ErrorContext(ctx, "identity provider email rollback failed, manual reconciliation required",
		"reconcile", "manual",
		"user_id", u.user.ID(),
		"identity_ref", ref.String(),
		"stored_email", u.previousEmail.String(),
		"provider_email", u.newEmail.String(),
		"attempts", u.rollbackAttempts,
		"persist_error", cause,
		"error", lastErr,
	)
	return models.NewRollbackFailedError(
		fmt.Sprintf("local update failed (%v) and identity provider email could not be reverted", cause), lastErr)
}
