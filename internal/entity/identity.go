package entity

// IdentityKind distinguishes authenticated callers from anonymous ones.
type IdentityKind string

const (
	// IdentityPersistent is a stable authenticated identifier. Only
	// persistent identities own ledger records.
	IdentityPersistent IdentityKind = "user"
	// IdentityEphemeral is derived from the client network address and is
	// used for quota accounting only.
	IdentityEphemeral IdentityKind = "anon"
)

// Identity is the caller-distinguishing key used for quota accounting and
// ledger ownership.
type Identity struct {
	Kind IdentityKind `json:"kind"`
	Key  string       `json:"key"`
}

func PersistentIdentity(key string) Identity {
	return Identity{Kind: IdentityPersistent, Key: key}
}

func EphemeralIdentity(key string) Identity {
	return Identity{Kind: IdentityEphemeral, Key: key}
}

func (i Identity) IsPersistent() bool {
	return i.Kind == IdentityPersistent
}

// String renders a stable "kind:key" form suitable for counter keys.
func (i Identity) String() string {
	return string(i.Kind) + ":" + i.Key
}
