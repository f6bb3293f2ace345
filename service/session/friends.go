package session

import (
	"slices"

	"github.com/danglnh07/titan/fault"
	"github.com/danglnh07/titan/service/identity"
)

// Friend graph mutations. Each is a coordinated two-sided update persisted as
// one write through the identity store, so accepted friendship stays
// symmetric: present in both friend sets or in neither.

// SendFriendRequest records the pending edge on both sides. Rejected when the
// edge (in any direction or state) already exists.
func (m *Manager) SendFriendRequest(targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return fault.Authorizationf("general.error")
	}
	if targetID == m.current.ID {
		return fault.Validationf("friends.error_sending_request")
	}
	target, ok := m.ids.Lookup(targetID)
	if !ok {
		return fault.NotFoundf("profile.user_not_found_title")
	}

	switch {
	case m.current.IsFriendOf(targetID):
		return fault.Validationf("friends.already_friends").WithName(target.Name)
	case slices.Contains(m.current.FriendRequestsSent, targetID):
		return fault.Validationf("friends.request_already_sent")
	case slices.Contains(m.current.FriendRequestsReceived, targetID),
		slices.Contains(target.FriendRequestsSent, m.current.ID):
		return fault.Validationf("friends.request_already_received").WithName(target.Name)
	}

	sent := appendUnique(m.current.FriendRequestsSent, targetID)
	received := appendUnique(target.FriendRequestsReceived, m.current.ID)
	err := m.ids.UpdatePair(
		m.current.ID, identity.Update{FriendRequestsSent: &sent},
		targetID, identity.Update{FriendRequestsReceived: &received},
	)
	if err != nil {
		return err
	}
	m.refreshCurrent()
	return nil
}

// AcceptFriendRequest promotes the pending edge to friendship on both sides.
func (m *Manager) AcceptFriendRequest(requesterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return fault.Authorizationf("general.error")
	}
	requester, ok := m.ids.Lookup(requesterID)
	if !ok {
		return fault.NotFoundf("profile.user_not_found_title")
	}
	if !slices.Contains(m.current.FriendRequestsReceived, requesterID) {
		return fault.NotFoundf("friends.no_friend_requests")
	}

	myFriends := appendUnique(m.current.FriendIDs, requesterID)
	myReceived := removeID(m.current.FriendRequestsReceived, requesterID)
	theirFriends := appendUnique(requester.FriendIDs, m.current.ID)
	theirSent := removeID(requester.FriendRequestsSent, m.current.ID)

	err := m.ids.UpdatePair(
		m.current.ID, identity.Update{FriendIDs: &myFriends, FriendRequestsReceived: &myReceived},
		requesterID, identity.Update{FriendIDs: &theirFriends, FriendRequestsSent: &theirSent},
	)
	if err != nil {
		return err
	}
	m.refreshCurrent()
	return nil
}

// RejectFriendRequest drops the pending edge from both sides without
// creating friendship.
func (m *Manager) RejectFriendRequest(requesterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return fault.Authorizationf("general.error")
	}
	requester, ok := m.ids.Lookup(requesterID)
	if !ok {
		return fault.NotFoundf("profile.user_not_found_title")
	}

	myReceived := removeID(m.current.FriendRequestsReceived, requesterID)
	theirSent := removeID(requester.FriendRequestsSent, m.current.ID)

	err := m.ids.UpdatePair(
		m.current.ID, identity.Update{FriendRequestsReceived: &myReceived},
		requesterID, identity.Update{FriendRequestsSent: &theirSent},
	)
	if err != nil {
		return err
	}
	m.refreshCurrent()
	return nil
}

// Unfriend removes the symmetric edge from both friend sets.
func (m *Manager) Unfriend(friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return fault.Authorizationf("general.error")
	}
	friend, ok := m.ids.Lookup(friendID)
	if !ok {
		return fault.NotFoundf("profile.user_not_found_title")
	}

	myFriends := removeID(m.current.FriendIDs, friendID)
	theirFriends := removeID(friend.FriendIDs, m.current.ID)

	err := m.ids.UpdatePair(
		m.current.ID, identity.Update{FriendIDs: &myFriends},
		friendID, identity.Update{FriendIDs: &theirFriends},
	)
	if err != nil {
		return err
	}
	m.refreshCurrent()
	return nil
}

// Block is unilateral and idempotent; the counterpart's own lists are never
// touched.
func (m *Manager) Block(targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return fault.Authorizationf("general.error")
	}
	if m.current.HasBlocked(targetID) {
		return nil
	}
	blocked := appendUnique(m.current.BlockedIDs, targetID)
	return m.updateCurrent(identity.Update{BlockedIDs: &blocked})
}

func (m *Manager) Unblock(targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return fault.Authorizationf("general.error")
	}
	if !m.current.HasBlocked(targetID) {
		return nil
	}
	blocked := removeID(m.current.BlockedIDs, targetID)
	return m.updateCurrent(identity.Update{BlockedIDs: &blocked})
}

func (m *Manager) refreshCurrent() {
	if m.current == nil {
		return
	}
	if account, ok := m.ids.Lookup(m.current.ID); ok {
		m.current = &account
	}
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return slices.Clone(ids)
	}
	return append(slices.Clone(ids), id)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
