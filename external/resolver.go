package external

import (
	"context"
	"errors"

	"github.com/goliatone/go-accounts"
)

// Resolution is the outcome of mapping a provider profile to an identity.
type Resolution struct {
	Identity     *accounts.Identity
	IsNewAccount bool
	Linked       bool
}

// Resolver maps external provider profiles to identities. Matching runs by
// provider subject first and by email second; an identity is created only
// when neither matches. A successful resolution performs at most one write,
// a failed one performs none.
type Resolver struct {
	store   accounts.Identities
	handles *accounts.HandleGenerator
	logger  accounts.Logger
	metrics accounts.MetricsCollector
}

type ResolverOption func(*Resolver) *Resolver

func WithResolverLogger(logger accounts.Logger) ResolverOption {
	return func(r *Resolver) *Resolver {
		if logger != nil {
			r.logger = logger
		}
		return r
	}
}

func WithResolverMetrics(m accounts.MetricsCollector) ResolverOption {
	return func(r *Resolver) *Resolver {
		if m != nil {
			r.metrics = m
		}
		return r
	}
}

func NewResolver(store accounts.Identities, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:   store,
		handles: accounts.NewHandleGenerator(store),
		logger:  accounts.NewDefaultLogger(),
		metrics: accounts.NoopMetrics{},
	}

	for _, opt := range opts {
		r = opt(r)
	}

	return r
}

// Resolve maps the profile to exactly one identity. The intent picks which
// error a conflicting email surfaces as; it never changes which identity a
// resolution lands on.
func (r *Resolver) Resolve(ctx context.Context, profile *Profile, intent Intent) (*Resolution, error) {
	if !profile.Complete() {
		r.metrics.RecordExternalResolution(providerLabel(profile), "failure")
		return nil, ErrIncompleteExternalProfile
	}

	res, err := r.resolve(ctx, profile, intent)
	if err != nil {
		r.metrics.RecordExternalResolution(profile.Provider, "failure")
		return nil, err
	}

	outcome := "login"
	if res.IsNewAccount {
		outcome = "created"
	} else if res.Linked {
		outcome = "linked"
	}
	r.metrics.RecordExternalResolution(profile.Provider, outcome)

	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, profile *Profile, intent Intent) (*Resolution, error) {
	existing, err := r.store.GetBySubject(ctx, profile.Provider, profile.SubjectID)
	if err == nil {
		// Subject already bound, this is a plain re-login. No writes.
		return &Resolution{Identity: existing, IsNewAccount: false}, nil
	}
	if !errors.Is(err, accounts.ErrIdentityNotFound) {
		return nil, accounts.WrapStoreError(err, "failed to look up provider subject")
	}

	byEmail, err := r.store.GetByEmail(ctx, profile.Email)
	if err == nil {
		return r.resolveEmailMatch(ctx, byEmail, profile, intent)
	}
	if !errors.Is(err, accounts.ErrIdentityNotFound) {
		return nil, accounts.WrapStoreError(err, "failed to look up profile email")
	}

	return r.createFromProfile(ctx, profile, intent)
}

func (r *Resolver) resolveEmailMatch(ctx context.Context, identity *accounts.Identity, profile *Profile, intent Intent) (*Resolution, error) {
	if !identity.HasExternalSubject() {
		linked, err := r.store.LinkExternal(ctx, identity.ID, profile.Provider, profile.SubjectID)
		if err != nil {
			if errors.Is(err, accounts.ErrIdentityNotFound) {
				// Another resolution claimed the row between the read and
				// the link. The subject lookup settles who owns it now.
				settled, serr := r.store.GetBySubject(ctx, profile.Provider, profile.SubjectID)
				if serr == nil {
					return &Resolution{Identity: settled, IsNewAccount: false}, nil
				}
				return nil, ErrAuthenticationFailed
			}
			return nil, accounts.WrapStoreError(err, "failed to link provider subject")
		}
		r.logger.Info("linked external subject to existing identity",
			"identity_id", identity.ID, "provider", profile.Provider)
		return &Resolution{Identity: linked, IsNewAccount: false, Linked: true}, nil
	}

	if identity.Provider == profile.Provider && identity.ExternalSubjectID == profile.SubjectID {
		// The subject lookup should have caught this row already.
		return nil, ErrAuthenticationFailed
	}

	if intent == IntentSignup {
		return nil, ErrAccountConflict
	}
	return nil, ErrExistingAccountDifferentProvider
}

func (r *Resolver) createFromProfile(ctx context.Context, profile *Profile, intent Intent) (*Resolution, error) {
	handle, err := r.handles.Generate(ctx, accounts.HandleFromEmail(profile.Email))
	if err != nil {
		return nil, ErrAccountCreationFailed
	}

	identity := &accounts.Identity{
		Email:             profile.Email,
		LoginHandle:       handle,
		Provider:          profile.Provider,
		ExternalSubjectID: profile.SubjectID,
	}

	retried := false
	for {
		created, err := r.store.Create(ctx, identity)
		if err == nil {
			r.logger.Info("created identity from external profile",
				"identity_id", created.ID, "provider", profile.Provider)
			return &Resolution{Identity: created, IsNewAccount: true}, nil
		}
		if !accounts.IsUniqueViolation(err) {
			return nil, accounts.WrapStoreError(err, "failed to create identity")
		}

		// A concurrent resolution or signup got there first. Re-read to
		// decide whether the row is ours, linkable, or a true conflict.
		if settled, serr := r.store.GetBySubject(ctx, profile.Provider, profile.SubjectID); serr == nil {
			return &Resolution{Identity: settled, IsNewAccount: false}, nil
		}
		if byEmail, serr := r.store.GetByEmail(ctx, profile.Email); serr == nil {
			return r.resolveEmailMatch(ctx, byEmail, profile, intent)
		}

		// Neither index matches, so the handle collided.
		if retried {
			return nil, ErrAccountCreationFailed
		}
		retried = true

		handle, err = r.handles.Generate(ctx, accounts.HandleFromEmail(profile.Email))
		if err != nil {
			return nil, ErrAccountCreationFailed
		}
		identity.LoginHandle = handle
	}
}

func providerLabel(profile *Profile) string {
	if profile == nil || profile.Provider == "" {
		return "unknown"
	}
	return profile.Provider
}
