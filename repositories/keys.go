package repositories

import (
	"dm-lab/domain"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Keys embed timestamps padded to 19 digits so lexicographical order is chronological.
// Secondary indexes live under "idx:" and carry no value unless stated.

func requestKey(id string) []byte {
	return []byte("request:" + id)
}

func pendingIndexPrefix(receiverID string) []byte {
	return []byte(fmt.Sprintf("idx:request:pending:%s:", receiverID))
}

func pendingIndexKey(r domain.MessageRequest) []byte {
	return []byte(fmt.Sprintf("idx:request:pending:%s:%019d:%s", r.ReceiverID, r.CreatedAt.UnixNano(), r.ID))
}

func pairIndexPrefix(senderID, receiverID string) []byte {
	return []byte(fmt.Sprintf("idx:request:pair:%s:%s:", senderID, receiverID))
}

func pairIndexKey(r domain.MessageRequest) []byte {
	return []byte(fmt.Sprintf("idx:request:pair:%s:%s:%s", r.SenderID, r.ReceiverID, r.ID))
}

func conversationKey(id string) []byte {
	return []byte("conversation:" + id)
}

// conversationPairKey is the uniqueness constraint of conversations. Its value is the conversation id.
func conversationPairKey(pair domain.Pair) []byte {
	return []byte("idx:conversation:pair:" + pair.Key())
}

func conversationUserPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("idx:conversation:user:%s:", userID))
}

func conversationUserKey(userID, conversationID string) []byte {
	return []byte(fmt.Sprintf("idx:conversation:user:%s:%s", userID, conversationID))
}

func messagePrefix(conversationID string) []byte {
	return []byte(fmt.Sprintf("message:%s:", conversationID))
}

func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("message:%s:%019d:%s", m.ConversationID, m.CreatedAt.UnixNano(), m.ID))
}

// messageIndexKey points to the primary message key.
func messageIndexKey(id string) []byte {
	return []byte("idx:message:" + id)
}

func userKey(id string) []byte {
	return []byte("user:" + id)
}

// lastSegment returns the id ending an index key.
func lastSegment(key []byte) string {
	s := string(key)
	return s[strings.LastIndex(s, ":")+1:]
}

// messageTimestamp extracts the padded timestamp of a message key.
func messageTimestamp(key []byte) (time.Time, error) {
	parts := strings.Split(string(key), ":")
	if len(parts) != 4 {
		return time.Time{}, fmt.Errorf("malformed message key %q", key)
	}
	nanos, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos).UTC(), nil
}
