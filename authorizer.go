package auth

import (
	"context"
	"time"
)

// RequiredPermissions is the immutable permission requirement attached to an
// operation at wiring time. Construct once, share freely.
type RequiredPermissions struct {
	names []string
}

// RequirePermissions builds a requirement from permission names. Empty and
// duplicate names are dropped, order is preserved.
func RequirePermissions(names ...string) RequiredPermissions {
	out := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return RequiredPermissions{names: out}
}

// Names returns a copy of the required permission names.
func (r RequiredPermissions) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Empty reports whether the requirement demands nothing beyond authentication.
func (r RequiredPermissions) Empty() bool {
	return len(r.names) == 0
}

// PermissionAuthorizer layers permission checks on top of an Authenticator.
// Authentication failures always surface before permission failures, so
// callers can tell a missing identity apart from an insufficient one.
type PermissionAuthorizer struct {
	auther       Authenticator
	logger       Logger
	activitySink ActivitySink
}

// NewAuthorizer builds a PermissionAuthorizer around the given Authenticator.
func NewAuthorizer(auther Authenticator) *PermissionAuthorizer {
	return &PermissionAuthorizer{
		auther:       auther,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (a *PermissionAuthorizer) WithLogger(logger Logger) *PermissionAuthorizer {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithActivitySink configures an ActivitySink for permission denial events.
func (a *PermissionAuthorizer) WithActivitySink(sink ActivitySink) *PermissionAuthorizer {
	a.activitySink = normalizeActivitySink(sink)
	return a
}

// Check authenticates the bearer token and verifies the identity holds every
// required permission. The wildcard grant satisfies any requirement.
func (a *PermissionAuthorizer) Check(ctx context.Context, token string, required RequiredPermissions) (Identity, error) {
	identity, err := a.auther.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if required.Empty() {
		return identity, nil
	}

	missing := MissingPermissions(identity.Permissions(), required.Names())
	if len(missing) == 0 {
		return identity, nil
	}

	a.logger.Warn("permission check failed", "user_id", identity.ID(), "missing", missing)
	a.emitDenied(ctx, identity, missing)

	return nil, ForbiddenMissing(missing)
}

func (a *PermissionAuthorizer) emitDenied(ctx context.Context, identity Identity, missing []string) {
	sink := normalizeActivitySink(a.activitySink)
	event := ActivityEvent{
		EventType: ActivityEventPermissionDenied,
		Actor:     ActorRef{ID: identity.ID(), Type: "user"},
		UserID:    identity.ID(),
		Metadata: map[string]any{
			"missing_permissions": missing,
		},
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := sink.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error: %v", err)
	}
}

var _ Authorizer = (*PermissionAuthorizer)(nil)
