package models

// PeerKind distinguishes the two addressee shapes a conversation can have.
type PeerKind string

const (
	PeerUser  PeerKind = "user"
	PeerGroup PeerKind = "group"
)

// Peer identifies the other side of a conversation: a single user for a
// direct chat, or a group. A direct conversation is keyed by the
// unordered (viewer, peer) pair; a group conversation by the group id.
type Peer struct {
	Kind PeerKind `json:"kind"`
	ID   int64    `json:"id"`
}

func UserPeer(id int64) Peer {
	return Peer{Kind: PeerUser, ID: id}
}

func GroupPeer(id int64) Peer {
	return Peer{Kind: PeerGroup, ID: id}
}

func (p Peer) IsGroup() bool {
	return p.Kind == PeerGroup
}
