package badger

import (
	"encoding/binary"
)

// Database Key Namespace Design
// =============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize the two
// entity collections and their indexes into logical namespaces. This design:
//   - Prevents key collisions between different data types
//   - Enables efficient range scans (all children of a folder in order)
//   - Makes the database structure self-documenting
//
// Nodes and users are identified by UUID v4 assigned by the services, which
// provides collision resistance without coordination between writers.
//
// Key Namespace Prefixes:
//
// Data Type            Prefix   Key Format                  Value Type
// =========================================================================
// User Data            "u:"     u:<userID>                     User (JSON)
// Email Index          "e:"     e:<email>                      userID (bytes)
// Node Data            "n:"     n:<nodeID>                     FileNode (JSON)
// Children Index       "c:"     c:<ownerID>:<parentID>:<seq>   nodeID (bytes)
// Insertion Sequence   "seq:"   seq:nodes                      uint64 (big endian)
//
// The children index is a compound index over owner and parent, ending in
// a store-wide monotonically increasing sequence number encoded big-endian:
// a prefix scan over "c:<ownerID>:<parentID>:" returns one owner's children
// in insertion order without filtering. The sequence is incremented in the
// same transaction as the node insert, which makes pagination order stable
// under concurrent uploads. IDs are UUIDs and the root parent is "0", so
// the ':' separator cannot occur inside a key component.

const (
	userPrefix     = "u:"
	emailPrefix    = "e:"
	nodePrefix     = "n:"
	childrenPrefix = "c:"
	nodeSeqKey     = "seq:nodes"
)

func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

func emailKey(email string) []byte {
	return []byte(emailPrefix + email)
}

func nodeKey(id string) []byte {
	return []byte(nodePrefix + id)
}

// childScanPrefix is the range-scan prefix covering one owner's children
// of a parent.
func childScanPrefix(userID, parentID string) []byte {
	return []byte(childrenPrefix + userID + ":" + parentID + ":")
}

// childKey orders an owner's children of a parent by the store-wide insert
// sequence.
func childKey(userID, parentID string, seq uint64) []byte {
	prefix := childScanPrefix(userID, parentID)
	key := make([]byte, 0, len(prefix)+8)
	key = append(key, prefix...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return append(key, buf[:]...)
}
