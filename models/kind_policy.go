package models

import "time"

// NeverExpires is stored as valid_until for kinds without a renewal cycle.
var NeverExpires = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// KindPolicy carries everything that differs between payable kinds.
type KindPolicy struct {
	Kind            Kind
	TracksLifecycle bool
	UniquePayer     bool
	ReceiptTitle    string
	validity        func(completedAt time.Time) time.Time
}

var kindPolicies = map[Kind]KindPolicy{
	KindMembership: {
		Kind:            KindMembership,
		TracksLifecycle: true,
		UniquePayer:     true,
		ReceiptTitle:    "Membership Fee Receipt",
		validity: func(completedAt time.Time) time.Time {
			return completedAt.AddDate(1, 0, 0)
		},
	},
	KindDonation: {
		Kind:         KindDonation,
		ReceiptTitle: "Donation Receipt",
		validity: func(time.Time) time.Time {
			return NeverExpires
		},
	},
}

func PolicyFor(kind Kind) (KindPolicy, bool) {
	p, ok := kindPolicies[kind]
	return p, ok
}

func Kinds() []Kind {
	return []Kind{KindMembership, KindDonation}
}

// Validity returns the validity window opened by a completion at completedAt.
func (p KindPolicy) Validity(completedAt time.Time) (from, until time.Time) {
	from = completedAt.UTC()
	return from, p.validity(from)
}

// InitialLifecycle is the lifecycle value a fresh record starts with.
func (p KindPolicy) InitialLifecycle() LifecycleStatus {
	if p.TracksLifecycle {
		return LifecyclePending
	}
	return LifecycleNone
}

func (p KindPolicy) LifecycleOnCompletion() LifecycleStatus {
	if p.TracksLifecycle {
		return LifecycleActive
	}
	return LifecycleNone
}

func (p KindPolicy) LifecycleOnFailure() LifecycleStatus {
	if p.TracksLifecycle {
		return LifecycleRejected
	}
	return LifecycleNone
}
